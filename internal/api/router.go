package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/veriphone/verify-api/docs"
	"github.com/veriphone/verify-api/internal/api/handler"
	"github.com/veriphone/verify-api/internal/api/middleware"
	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/ports"
	"github.com/veriphone/verify-api/internal/core/rbac"
)

// Deps carries everything the router wires together. Handlers depend on the
// ports only, so tests can run the full HTTP surface against in-memory
// implementations.
type Deps struct {
	Log     zerolog.Logger
	Auth    ports.AuthService
	Tokens  ports.TokenService
	Phones  ports.PhoneService
	Roles   ports.RoleRepository
	Catalog *rbac.Catalog
	Limiter *middleware.RateLimiter

	// Backing stores, used only by the readiness probe.
	Mongo *mongo.Database
	Redis *redis.Client

	RefreshTTL    time.Duration
	SecureCookies bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("phoneverify"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.RefreshTTL, deps.SecureCookies)
	roleHandler := handler.NewRoleHandler(deps.Roles, deps.Catalog)
	phoneHandler := handler.NewPhoneHandler(deps.Phones)
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	// --- Auth middleware variants ---
	authed := middleware.Authenticate(deps.Tokens)
	optional := middleware.OptionalAuthenticate(deps.Tokens)

	// Rate limiting runs after identity resolution so authenticated callers
	// are keyed by user id and counted against their tier.
	limitGeneric := deps.Limiter.Middleware(middleware.ClassGeneric)
	limitLogin := deps.Limiter.Middleware(middleware.ClassLogin)
	limitSignup := deps.Limiter.Middleware(middleware.ClassSignup)
	limitReset := deps.Limiter.Middleware(middleware.ClassPasswordReset)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/signup", authHandler.Signup, optional, limitSignup)
	auth.POST("/login", authHandler.Login, optional, limitLogin)
	auth.POST("/refresh", authHandler.Refresh, optional, limitGeneric)
	auth.POST("/logout", authHandler.Logout, authed, limitGeneric)
	auth.GET("/me", authHandler.Me, authed, limitGeneric)
	auth.POST("/password-reset/request", authHandler.RequestPasswordReset, optional, limitReset)
	auth.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset, optional, limitReset)
	auth.POST("/verify-email", authHandler.VerifyEmail, optional, limitGeneric)

	// --- Role admin routes ---
	roles := e.Group("/roles", authed, limitGeneric,
		middleware.RequirePermission(deps.Catalog, domain.PermManageRoles))
	roles.GET("", roleHandler.List)
	roles.PUT("/:name/permissions", roleHandler.UpdatePermissions)

	// --- Phone routes ---
	phone := e.Group("/phone", authed, limitGeneric)
	phone.POST("/validate", phoneHandler.Validate,
		middleware.RequirePermission(deps.Catalog, domain.PermPhoneValidate))
	phone.GET("/validations", phoneHandler.History,
		middleware.RequirePermission(deps.Catalog, domain.PermReadOwn))

	// --- Ops routes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
