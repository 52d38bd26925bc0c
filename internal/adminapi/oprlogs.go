package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/storepro/internal/domain"
	"github.com/talkincode/storepro/internal/webserver"
)

func registerOprLogRoutes() {
	webserver.ApiGET("/system/oprlogs", listOprLogs)
}

func listOprLogs(c echo.Context) error {
	page, pageSize := parsePagination(c)

	base := GetDB(c).Model(&domain.SysOprLog{})
	if name := strings.TrimSpace(c.QueryParam("operator")); name != "" {
		base = base.Where("opr_name = ?", name)
	}
	if action := strings.TrimSpace(c.QueryParam("action")); action != "" {
		base = base.Where("opt_action = ?", action)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operation logs", err.Error())
	}

	var rows []domain.SysOprLog
	if err := base.Order("opt_time DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operation logs", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}
