package validation

import (
	"strconv"

	"github.com/go-playground/validator/v10"
)

type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

const (
	MsgRequired        = "Name, email and password are required."
	MsgInvalidName     = "Invalid name. Only letters and spaces, at least 2 characters."
	MsgNameTooLong     = "Name is too long (max. 50 characters)."
	MsgEmailTooLong    = "Email is too long (max. 100 characters)."
	MsgPasswordEqual   = "Password cannot equal name or email."
	MsgWeakPassword    = "Password must be at least 8 characters and include uppercase, lowercase, numbers and symbols."
	MsgInvalidEmail    = "Invalid email."
	MsgPasswordTooLong = "Password is too long (max. 72 bytes)."
)

// Checker runs every account rule independently so callers can report all
// problems in one response.
type Checker struct {
	v *validator.Validate
}

func NewChecker() (*Checker, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := Register(v); err != nil {
		return nil, err
	}
	return &Checker{v: v}, nil
}

// NewUser expects name and email to be trimmed already.
func (c *Checker) NewUser(name, email, password string) []Violation {
	var out []Violation

	fail := func(value, tag string) bool {
		return c.v.Var(value, tag) != nil
	}

	for _, f := range []struct{ field, value string }{
		{"name", name},
		{"email", email},
		{"password", password},
	} {
		if fail(f.value, "required") {
			out = append(out, Violation{Field: f.field, Rule: "required", Message: MsgRequired})
		}
	}

	if fail(name, TagName) {
		out = append(out, Violation{Field: "name", Rule: TagName, Message: MsgInvalidName})
	}

	if fail(name, "max="+strconv.Itoa(MaxNameLength)) {
		out = append(out, Violation{Field: "name", Rule: "max", Message: MsgNameTooLong})
	}

	if fail(email, "max="+strconv.Itoa(MaxEmailLength)) {
		out = append(out, Violation{Field: "email", Rule: "max", Message: MsgEmailTooLong})
	}

	if password != "" && (password == name || password == email) {
		out = append(out, Violation{Field: "password", Rule: "nefield", Message: MsgPasswordEqual})
	}

	if fail(password, TagPassword) {
		out = append(out, Violation{Field: "password", Rule: TagPassword, Message: MsgWeakPassword})
	}

	if fail(email, TagEmail) {
		out = append(out, Violation{Field: "email", Rule: TagEmail, Message: MsgInvalidEmail})
	}

	return out
}
