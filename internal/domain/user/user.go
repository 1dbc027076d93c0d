package user

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public is the only shape a user leaves the service in.
type Public struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u User) Public() Public {
	return Public{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func PublicList(users []User) []Public {
	out := make([]Public, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

// Created is the body returned by a successful create.
type Created struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewUser is what the store needs to insert a record; ID and timestamps are the store's job.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
}

// Changes is a partial update; nil fields keep their stored value.
type Changes struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

func (c Changes) Empty() bool {
	return c.Name == nil && c.Email == nil && c.PasswordHash == nil
}

// name and email are trimmed while decoding, password is taken as-is.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *CreateUserRequest) UnmarshalJSON(b []byte) error {
	type raw CreateUserRequest
	var v raw

	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	*r = CreateUserRequest(v)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return nil
}

// partial update: an empty field means "leave as is".
type UpdateUserRequest struct {
	Name     string `json:"name" binding:"omitempty,max=50,personname"`
	Email    string `json:"email" binding:"omitempty,max=100,accountemail"`
	Password string `json:"password"`
}

func (r *UpdateUserRequest) UnmarshalJSON(b []byte) error {
	type raw UpdateUserRequest
	var v raw

	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	*r = UpdateUserRequest(v)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return nil
}
