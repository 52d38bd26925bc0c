package adminapi

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/talkincode/storepro/internal/checkout"
	"github.com/talkincode/storepro/internal/export"
	"github.com/talkincode/storepro/internal/repository"
	"github.com/talkincode/storepro/internal/webserver"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// checkoutPayload accepts items either as the cart JSON string or as an array.
type checkoutPayload struct {
	CustomerName string              `json:"customer_name"`
	Discount     decimal.Decimal     `json:"discount"`
	Items        jsoniter.RawMessage `json:"items"`
}

func registerPurchaseRoutes() {
	webserver.ApiPOST("/purchases", createPurchase)
	webserver.ApiGET("/purchases", listPurchases)
	webserver.ApiGET("/purchases/export.csv", exportPurchasesCSV)
	webserver.ApiGET("/purchases/export.xlsx", exportPurchasesXLSX)
	webserver.ApiGET("/purchases/:id", getPurchase)
}

func purchaseRepo(c echo.Context) *repository.GormPurchaseRepository {
	return repository.NewGormPurchaseRepository(GetDB(c))
}

func cartFromRaw(raw jsoniter.RawMessage) ([]checkout.CartItem, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, errors.Wrap(checkout.ErrInvalidCart, err.Error())
		}
		return checkout.ParseCart(s)
	}
	return checkout.ParseCart(string(trimmed))
}

func bindCheckout(c echo.Context) (checkout.Request, error) {
	req := checkout.Request{Operator: operatorName(c)}
	if isFormRequest(c) {
		discount, err := parseMoney("discount", c.FormValue("discount"))
		if err != nil {
			return req, errors.Wrap(checkout.ErrInvalidDiscount, err.Error())
		}
		items, err := checkout.ParseCart(c.FormValue("items"))
		if err != nil {
			return req, err
		}
		req.CustomerName = c.FormValue("customer_name")
		req.Discount = discount
		req.Items = items
		return req, nil
	}

	var payload checkoutPayload
	if err := c.Bind(&payload); err != nil {
		return req, errors.Wrap(checkout.ErrInvalidCart, "unable to parse checkout request")
	}
	items, err := cartFromRaw(payload.Items)
	if err != nil {
		return req, err
	}
	req.CustomerName = payload.CustomerName
	req.Discount = payload.Discount
	req.Items = items
	return req, nil
}

// checkoutFailure maps checkout errors onto API error codes.
func checkoutFailure(c echo.Context, err error) error {
	switch {
	case errors.Is(err, checkout.ErrUnauthenticated):
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), nil)
	case errors.Is(err, checkout.ErrMissingCustomer), errors.Is(err, checkout.ErrInvalidDiscount):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, checkout.ErrInvalidCart):
		return fail(c, http.StatusBadRequest, "INVALID_CART", err.Error(), nil)
	case errors.Is(err, checkout.ErrProductNotFound):
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, checkout.ErrInsufficientStock):
		return fail(c, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error(), nil)
	case errors.Is(err, checkout.ErrPriceMismatch):
		return fail(c, http.StatusConflict, "PRICE_MISMATCH", err.Error(), nil)
	default:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Checkout failed", err.Error())
	}
}

func createPurchase(c echo.Context) error {
	req, err := bindCheckout(c)
	if err != nil {
		return checkoutFailure(c, err)
	}
	purchase, err := webserver.GetAppContext(c).Checkout().Checkout(c.Request().Context(), req)
	if err != nil {
		return checkoutFailure(c, err)
	}
	return c.JSON(http.StatusCreated, Response{Code: "OK", Data: purchase})
}

// parseDateBound parses a from/to query value. A bare date used as the upper
// bound covers the whole day.
func parseDateBound(raw string, upper bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseLocal(raw)
	if err != nil {
		return time.Time{}, err
	}
	if upper && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func listPurchases(c echo.Context) error {
	page, pageSize := parsePagination(c)
	from, err := parseDateBound(c.QueryParam("from"), false)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid from date", err.Error())
	}
	to, err := parseDateBound(c.QueryParam("to"), true)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid to date", err.Error())
	}

	filter := repository.PurchaseFilter{
		From:     from,
		To:       to,
		Customer: strings.TrimSpace(c.QueryParam("customer")),
	}
	rows, total, err := purchaseRepo(c).List(c.Request().Context(), filter, page, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query purchases", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getPurchase(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid purchase ID", nil)
	}
	p, err := purchaseRepo(c).GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Purchase not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query purchase", err.Error())
	}
	return ok(c, p)
}

func exportPurchasesCSV(c echo.Context) error {
	rows, err := purchaseRepo(c).All(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query purchases", err.Error())
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows); err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export purchases", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="invoices.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func exportPurchasesXLSX(c echo.Context) error {
	rows, err := purchaseRepo(c).All(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query purchases", err.Error())
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rows); err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export purchases", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="invoices.xlsx"`)
	return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}
