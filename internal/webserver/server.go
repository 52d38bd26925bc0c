package webserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/talkincode/storepro/internal/app"
	"github.com/talkincode/storepro/internal/auth"
)

const (
	apiPrefix     = "/api/v1"
	appContextKey = "app_context"
)

var server *AdminServer

// routes reachable without a session
var publicRoutes = map[string]bool{
	apiPrefix + "/auth/login":    true,
	apiPrefix + "/auth/register": true,
}

type AdminServer struct {
	root   *echo.Echo
	api    *echo.Group
	appCtx app.AppContext
	auth   *auth.Service
}

// Init creates the package level admin server bound to appCtx.
func Init(appCtx app.AppContext) {
	server = NewAdminServer(appCtx)
}

func NewAdminServer(appCtx app.AppContext) *AdminServer {
	cfg := appCtx.Config()
	s := &AdminServer{
		root:   echo.New(),
		appCtx: appCtx,
		auth:   auth.NewService(appCtx.DB()),
	}
	e := s.root
	e.HideBanner = true
	e.HidePort = !cfg.System.Debug
	if cfg.System.Debug {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.ERROR)
	}
	e.Validator = NewValidator()
	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			zap.L().Debug("http request", fields...)
			return nil
		},
	}))
	e.Use(session.Middleware(auth.NewSessionStore(cfg.Web.Secret)))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appContextKey, s.appCtx)
			return next(c)
		}
	})

	e.Static("/uploads", cfg.GetUploadDir())

	s.api = e.Group(apiPrefix)
	s.api.Use(s.requireLogin())
	return s
}

func (s *AdminServer) requireLogin() echo.MiddlewareFunc {
	guard := auth.RequireLogin(s.auth, func(c echo.Context) error {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"code":    "UNAUTHORIZED",
			"message": "Login required",
		})
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := guard(next)
		return func(c echo.Context) error {
			if publicRoutes[c.Path()] {
				return next(c)
			}
			return guarded(c)
		}
	}
}

func (s *AdminServer) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	} else {
		zap.L().Error("unhandled api error", zap.String("path", c.Path()), zap.Error(err))
	}
	code := strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, map[string]interface{}{"code": code, "message": msg})
}

// Handler exposes the router, mostly for httptest.
func Handler() http.Handler {
	return server.root
}

func Start() error {
	cfg := server.appCtx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.S().Infof("admin server listening on %s", addr)
	err := server.root.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func Stop() {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.root.Shutdown(ctx); err != nil {
		zap.S().Errorf("admin server shutdown error: %s", err.Error())
	}
}

// GetAppContext returns the application context attached to every request.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(appContextKey).(app.AppContext)
}

// AuthService returns the operator authentication service.
func AuthService() *auth.Service {
	return server.auth
}

func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, m...)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.PUT(path, h, m...)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.DELETE(path, h, m...)
}

type jsonSerializer struct{}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
