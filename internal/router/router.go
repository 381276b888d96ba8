package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"userdirectory/internal/auth"
	"userdirectory/internal/errors"
	"userdirectory/internal/handler"
	"userdirectory/internal/logging"
	"userdirectory/internal/service"
	"userdirectory/internal/validation"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	logger logrus.FieldLogger,
	jwtService *auth.JWTService,
	authService service.AuthService,
	userHandler *handler.UserHandler,
	authHandler *handler.AuthHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(logger))
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validation.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/api/v1")

	// Public routes
	v1.GET("/greet", userHandler.Greet)
	v1.POST("/users", userHandler.CreateUser)
	v1.POST("/login", authHandler.Login)
	v1.POST("/auth/refresh", authHandler.Refresh)

	// Secured routes (require a valid, unrevoked access token)
	secured := v1.Group("",
		echojwt.WithConfig(echojwt.Config{
			SigningKey: jwtService.Secret(),
			NewClaimsFunc: func(c echo.Context) jwt.Claims {
				return new(auth.Claims)
			},
		}),
		RequireAccessToken(authService),
	)

	secured.GET("/me", authHandler.Me)
	secured.POST("/auth/logout", authHandler.Logout)

	secured.PUT("/users/:user_id", userHandler.UpdateUser)
	secured.PATCH("/users/:user_id", userHandler.UpdateStatus)
	secured.GET("/users/search", userHandler.SearchUsers)
	secured.GET("/users/search/:user_id", userHandler.GetUser)
}

// RequireAccessToken rejects refresh tokens and access tokens revoked by logout.
// It must run after the JWT middleware.
func RequireAccessToken(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := handler.ClaimsFromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: "invalid token",
					Code:  "INVALID_TOKEN",
				})
			}
			if err := authService.CheckAccess(c.Request().Context(), claims); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: err.Error(),
					Code:  "INVALID_TOKEN",
				})
			}
			return next(c)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
