package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/talkincode/storepro/internal/auth"
	"github.com/talkincode/storepro/internal/webserver"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

// Response is the envelope shared by every admin API reply.
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// PagedResponse wraps one page of a list.
type PagedResponse struct {
	Code     string      `json:"code"`
	Data     interface{} `json:"data"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
	Total    int64       `json:"total"`
}

// Init registers all admin API routes on the web server.
func Init() {
	registerAuthRoutes()
	registerProductRoutes()
	registerPurchaseRoutes()
	registerDashboardRoutes()
	registerOprLogRoutes()
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Code: "OK", Data: data})
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, Response{Code: code, Message: message, Details: details})
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, PagedResponse{
		Code:     "OK",
		Data:     rows,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

// parsePagination reads page and perPage (or the legacy pageSize).
func parsePagination(c echo.Context) (int, int) {
	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	raw := c.QueryParam("perPage")
	if raw == "" {
		raw = c.QueryParam("pageSize")
	}
	pageSize := defaultPageSize
	if ps, err := strconv.Atoi(raw); err == nil && ps > 0 {
		pageSize = ps
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid %s", name)
	}
	return id, nil
}

func GetDB(c echo.Context) *gorm.DB {
	return webserver.GetAppContext(c).DB().WithContext(c.Request().Context())
}

// operatorName is the username of the logged in operator.
func operatorName(c echo.Context) string {
	return auth.CurrentUsername(c)
}

func addOprLog(c echo.Context, action, desc string) {
	webserver.GetAppContext(c).AddOprLog(operatorName(c), c.RealIP(), action, desc)
}

func handleValidationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[strings.ToLower(fe.Field())] = fe.Tag()
		}
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Validation failed", details)
	}
	return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
}
