package http

import (
	"log/slog"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/http/handlers"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/validation"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the long-lived collaborators main builds and owns.
type Deps struct {
	Users   handlers.UsersStore
	// Lookup resolves :id on write routes. It should read the source of
	// truth rather than a cache; nil falls back to Users.
	Lookup  middlewares.UserFinder
	Hasher  handlers.PasswordHasher
	Checker *validation.Checker
	Prom    *observability.Prom
	// readiness checks by name, e.g. "postgres", "redis"
	Checks  map[string]handlers.Check
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) (*gin.Engine, error) {
	if cfg.Env != "dev" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	if deps.Checker == nil {
		checker, err := validation.NewChecker()
		if err != nil {
			return nil, err
		}
		deps.Checker = checker
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(deps.Checks, log)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Prom != nil {
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Hasher, deps.Checker, log)
	lookup := deps.Lookup
	if lookup == nil {
		lookup = deps.Users
	}
	loadUser := middlewares.LoadUser(deps.Users, log)
	loadForWrite := middlewares.LoadUser(lookup, log)
	requireJSON := middlewares.RequireJSON()

	users := r.Group("/user")
	{
		users.GET("/", usersHandler.List)
		users.GET("/:id", loadUser, usersHandler.Get)
		users.POST("/create", requireJSON, usersHandler.Create)
		users.PUT("/update/:id", loadForWrite, requireJSON, usersHandler.Update)
		users.DELETE("/delete/:id", loadForWrite, usersHandler.Delete)
	}

	return r, nil
}
