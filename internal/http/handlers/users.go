package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/geocoder89/userhub/internal/validation"
	"github.com/gin-gonic/gin"
)

const (
	storeTimeout = 3 * time.Second
	hashTimeout  = 10 * time.Second

	codeEmailTaken   = "email_taken"
	codeWeakPassword = "weak_password"
	codeUnavailable  = "unavailable"

	msgEmailTaken      = "Email is already registered."
	msgEmailInUse      = "Email is already in use by another account."
	msgWeakNewPassword = "New password does not meet the security requirements."
	msgUserNotFound    = "User not found"
	msgServerBusy      = "Server is busy, please retry."
)

type UsersStore interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, in user.NewUser) (user.User, error)
	Update(ctx context.Context, id string, ch user.Changes) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
}

type UsersHandler struct {
	store   UsersStore
	hasher  PasswordHasher
	checker *validation.Checker
	log     *slog.Logger
}

func NewUsersHandler(store UsersStore, hasher PasswordHasher, checker *validation.Checker, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{store: store, hasher: hasher, checker: checker, log: log}
}

// GET /user/
func (h *UsersHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	users, err := h.store.List(cctx)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list users failed", "err", err)
		RespondInternal(ctx, "Failed to list users")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, user.PublicList(users))
}

// GET /user/:id, behind LoadUser
func (h *UsersHandler) Get(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondNotFound(ctx, msgUserNotFound)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u.Public())
}

// POST /user/create
func (h *UsersHandler) Create(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if violations := h.checker.NewUser(req.Name, req.Email, req.Password); len(violations) > 0 {
		RespondBadRequest(ctx, "Invalid user data", gin.H{"fields": violations})
		return
	}

	hash, ok := h.hash(ctx, req.Password)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	created, err := h.store.Create(cctx, user.NewUser{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondError(ctx, http.StatusBadRequest, codeEmailTaken, msgEmailTaken, nil)
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "create user failed", "err", err)
		RespondInternal(ctx, "Failed to create user")
		return
	}

	ctx.JSON(http.StatusCreated, user.Created{
		ID:    created.ID,
		Name:  created.Name,
		Email: created.Email,
	})
}

// PUT /user/update/:id, behind LoadUser. Only provided fields are sent to
// the store; an empty body is a no-op.
func (h *UsersHandler) Update(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondNotFound(ctx, msgUserNotFound)
		return
	}

	var req user.UpdateUserRequest

	if !BindOptionalJSON(ctx, &req) {
		return
	}

	var ch user.Changes

	if req.Password != "" {
		if !validation.ValidPassword(req.Password) {
			RespondError(ctx, http.StatusBadRequest, codeWeakPassword, msgWeakNewPassword, nil)
			return
		}

		hash, ok := h.hash(ctx, req.Password)
		if !ok {
			return
		}
		ch.PasswordHash = &hash
	}

	if req.Email != "" && req.Email != u.Email {
		ch.Email = &req.Email
	}
	if req.Name != "" {
		ch.Name = &req.Name
	}

	if !ch.Empty() {
		cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
		defer cancel()

		if _, err := h.store.Update(cctx, u.ID, ch); err != nil {
			switch {
			case errors.Is(err, user.ErrEmailTaken):
				RespondError(ctx, http.StatusBadRequest, codeEmailTaken, msgEmailInUse, nil)
			case errors.Is(err, user.ErrNotFound):
				RespondNotFound(ctx, msgUserNotFound)
			default:
				h.log.ErrorContext(ctx.Request.Context(), "update user failed", "user_id", u.ID, "err", err)
				RespondInternal(ctx, "Failed to update user")
			}
			return
		}
	}

	RespondMessage(ctx, http.StatusOK, fmt.Sprintf("User %s updated successfully.", u.ID))
}

// DELETE /user/delete/:id, behind LoadUser
func (h *UsersHandler) Delete(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondNotFound(ctx, msgUserNotFound)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.store.Delete(cctx, u.ID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, msgUserNotFound)
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "delete user failed", "user_id", u.ID, "err", err)
		RespondInternal(ctx, "Failed to delete user")
		return
	}

	RespondMessage(ctx, http.StatusOK, "User deleted")
}

// hash writes the error response itself and reports false on failure.
func (h *UsersHandler) hash(ctx *gin.Context, plain string) (string, bool) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), hashTimeout)
	defer cancel()

	hash, err := h.hasher.Hash(cctx, plain)
	if err == nil {
		return hash, true
	}

	switch {
	case errors.Is(err, security.ErrPasswordTooLong):
		RespondBadRequest(ctx, "Invalid user data", gin.H{"fields": []validation.Violation{{
			Field:   "password",
			Rule:    "max",
			Message: validation.MsgPasswordTooLong,
		}}})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.log.WarnContext(ctx.Request.Context(), "password hashing gave up", "err", err)
		RespondError(ctx, http.StatusServiceUnavailable, codeUnavailable, msgServerBusy, nil)
	default:
		h.log.ErrorContext(ctx.Request.Context(), "password hashing failed", "err", err)
		RespondInternal(ctx, "Failed to process password")
	}
	return "", false
}
