package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/utils"
	"github.com/gin-gonic/gin"
)

const lookupTimeout = 2 * time.Second

type UserFinder interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// LoadUser resolves the :id path param before the handler runs. Unknown or
// malformed ids end the request with 404. Stores only ever see the canonical
// uuid spelling.
func LoadUser(finder UserFinder, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx *gin.Context) {
		id, ok := utils.CanonicalUUID(ctx.Param("id"))
		if !ok {
			abortError(ctx, http.StatusNotFound, "not_found", "User not found")
			return
		}

		cctx, cancel := config.WithTimeout(ctx.Request.Context(), lookupTimeout)
		defer cancel()

		u, err := finder.GetByID(cctx, id)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				abortError(ctx, http.StatusNotFound, "not_found", "User not found")
				return
			}

			log.ErrorContext(ctx.Request.Context(), "user lookup failed", "user_id", id, "err", err)
			abortError(ctx, http.StatusInternalServerError, "internal_error", "Failed to load user")
			return
		}

		WithUser(ctx, u)
		ctx.Next()
	}
}

func WithUser(ctx *gin.Context, u user.User) {
	ctx.Set(ctxUser, u)
}

func UserFromContext(ctx *gin.Context) (user.User, bool) {
	v, ok := ctx.Get(ctxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
