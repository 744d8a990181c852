package router

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"finhub/internal/auth"
	apperrors "finhub/internal/errors"
	"finhub/internal/handler"
	"finhub/internal/logger"
	"finhub/internal/service"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Banks        *handler.BankHandler
	Transactions *handler.TransactionHandler
	Projects     *handler.ProjectHandler
	Tasks        *handler.TaskHandler
	Dashboard    *handler.DashboardHandler
}

// Options configures middleware.
type Options struct {
	JWTSecret    []byte
	AllowOrigins []string
	// Health reports readiness for /healthz; nil always reports ok.
	Health func(ctx context.Context) error
}

// Register wires routes and middleware.
func Register(e *echo.Echo, opts Options, log *zap.Logger, authService service.AuthService, h Handlers) {
	e.HTTPErrorHandler = errorHandler(log)
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(logger.EchoMiddleware(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     opts.AllowOrigins,
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit("1M"))

	e.GET("/healthz", func(c echo.Context) error {
		if opts.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := opts.Health(ctx); err != nil {
				log.Warn("health check failed", zap.Error(err))
				return c.String(http.StatusServiceUnavailable, "unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/user/signup", h.Auth.Signup)
	api.POST("/user/login", h.Auth.Login)
	api.POST("/user/refresh", h.Auth.Refresh)

	// Secured routes (valid session token of an active, approved user)
	secured := api.Group("",
		echojwt.WithConfig(echojwt.Config{
			SigningKey:    opts.JWTSecret,
			SigningMethod: jwt.SigningMethodHS256.Alg(),
			ContextKey:    handler.TokenContextKey,
			TokenLookup:   "cookie:" + handler.SessionCookie + ",header:" + echo.HeaderAuthorization + ":Bearer ",
			NewClaimsFunc: func(c echo.Context) jwt.Claims {
				return new(auth.Claims)
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: "authentication required",
					Code:  string(apperrors.KindUnauthorized),
				})
			},
		}),
		handler.Session(authService),
	)

	secured.POST("/user/logout", h.Auth.Logout)
	secured.GET("/user/me", h.Auth.Me)
	secured.GET("/user/profile", h.Auth.Profile)

	// Employee administration
	secured.GET("/user/employees", h.Users.ListEmployees)
	secured.POST("/user/employees/approve", h.Users.Approve)
	secured.POST("/user/employees/reject", h.Users.Reject)
	secured.GET("/users", h.Users.Directory)

	// Bank routes
	secured.GET("/banks", h.Banks.List)
	secured.POST("/banks", h.Banks.Create)
	secured.PUT("/banks/:id", h.Banks.Update)
	secured.DELETE("/banks/:id", h.Banks.Delete)

	// Transaction routes
	secured.GET("/transactions", h.Transactions.List)
	secured.POST("/transactions", h.Transactions.Create)
	secured.PUT("/transactions/:id", h.Transactions.Update)
	secured.DELETE("/transactions/:id", h.Transactions.Delete)

	// Project routes
	secured.GET("/projects", h.Projects.List)
	secured.POST("/projects", h.Projects.Create)
	secured.GET("/projects/:id", h.Projects.Get)
	secured.PUT("/projects/:id", h.Projects.Update)
	secured.DELETE("/projects/:id", h.Projects.Archive)

	// Task routes
	secured.POST("/tasks", h.Tasks.Create)
	secured.PUT("/tasks/:id", h.Tasks.Update)
	secured.DELETE("/tasks/:id", h.Tasks.Delete)

	secured.GET("/dashboard/stats", h.Dashboard.Stats)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator reports field errors under their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// errorHandler renders every error as an ErrorResponse.
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := apperrors.ErrorResponse{Error: "internal server error", Code: string(apperrors.KindInternal)}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch msg := he.Message.(type) {
			case apperrors.ErrorResponse:
				body = msg
			case string:
				body = apperrors.ErrorResponse{Error: msg, Code: codeFor(status)}
			default:
				body = apperrors.ErrorResponse{Error: http.StatusText(status), Code: codeFor(status)}
			}
		} else {
			httpErr := apperrors.MapErrorToHTTP(err)
			status = httpErr.StatusCode
			body = httpErr.ToErrorResponse()
		}
		if status >= http.StatusInternalServerError {
			log.Error("request failed", zap.Error(err), zap.String("uri", c.Request().RequestURI))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return string(apperrors.KindUnauthorized)
	case http.StatusForbidden:
		return string(apperrors.KindForbidden)
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return string(apperrors.KindNotFound)
	case http.StatusConflict:
		return string(apperrors.KindConflict)
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return string(apperrors.KindValidation)
	default:
		return string(apperrors.KindInternal)
	}
}
