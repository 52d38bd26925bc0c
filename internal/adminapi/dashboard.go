package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/storepro/internal/dashboard"
	"github.com/talkincode/storepro/internal/domain"
	"github.com/talkincode/storepro/internal/repository"
	"github.com/talkincode/storepro/internal/webserver"
)

func registerDashboardRoutes() {
	webserver.ApiGET("/dashboard", getDashboard)
}

func getDashboard(c echo.Context) error {
	db := GetDB(c)
	threshold := webserver.GetAppContext(c).Config().Store.LowStockThreshold
	builder := dashboard.NewBuilder(
		repository.NewGormProductRepository(db),
		repository.NewGormPurchaseRepository(db),
		threshold,
	)
	summary, err := builder.Build(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to build dashboard", err.Error())
	}
	return ok(c, map[string]interface{}{
		"summary":         summary,
		"currency":        domain.SaleCurrency,
		"fixed_rate":      domain.FixedRate().String(),
		"total_sales_fmt": domain.FormatMoney(summary.TotalSales, domain.SaleCurrency),
	})
}
