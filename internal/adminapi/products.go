package adminapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/talkincode/storepro/internal/domain"
	"github.com/talkincode/storepro/internal/repository"
	"github.com/talkincode/storepro/internal/webserver"
)

type productPayload struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Category    string          `json:"category" validate:"max=50"`
	BuyPriceUSD decimal.Decimal `json:"buy_price_usd"`
	SellPrice   decimal.Decimal `json:"sell_price"`
	Quantity    int             `json:"quantity" validate:"min=0"`
	Notes       string          `json:"notes"`
}

// registerProductRoutes registers catalog CRUD endpoints
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/sellable", listSellableProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
}

func productRepo(c echo.Context) *repository.GormProductRepository {
	return repository.NewGormProductRepository(GetDB(c))
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)
	filter := repository.ProductFilter{
		Query:      strings.TrimSpace(c.QueryParam("q")),
		Category:   strings.TrimSpace(c.QueryParam("category")),
		IncludeAll: cast.ToBool(c.QueryParam("all")),
		SortField:  strings.TrimSpace(c.QueryParam("sort")),
		SortOrder:  strings.TrimSpace(c.QueryParam("order")),
	}

	rows, total, err := productRepo(c).List(c.Request().Context(), filter, page, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func listSellableProducts(c echo.Context) error {
	rows, err := productRepo(c).ListSellable(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return ok(c, rows)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := productRepo(c).GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}
	return ok(c, p)
}

func isFormRequest(c echo.Context) bool {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ctype, echo.MIMEMultipartForm) || strings.HasPrefix(ctype, echo.MIMEApplicationForm)
}

func parseMoney(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Errorf("%s must be a number", field)
	}
	return d, nil
}

// bindProduct reads a product from a JSON body or from form fields.
func bindProduct(c echo.Context) (*productPayload, error) {
	var payload productPayload
	if isFormRequest(c) {
		var err error
		payload.Name = c.FormValue("name")
		payload.Category = c.FormValue("category")
		payload.Notes = c.FormValue("notes")
		if payload.BuyPriceUSD, err = parseMoney("buy_price_usd", c.FormValue("buy_price_usd")); err != nil {
			return nil, err
		}
		if payload.SellPrice, err = parseMoney("sell_price", c.FormValue("sell_price")); err != nil {
			return nil, err
		}
		if raw := strings.TrimSpace(c.FormValue("quantity")); raw != "" {
			if payload.Quantity, err = strconv.Atoi(raw); err != nil {
				return nil, errors.New("quantity must be an integer")
			}
		}
	} else if err := c.Bind(&payload); err != nil {
		return nil, errors.New("Unable to parse product")
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.Category = strings.TrimSpace(payload.Category)
	if err := c.Validate(&payload); err != nil {
		return nil, err
	}
	if payload.BuyPriceUSD.IsNegative() || payload.SellPrice.IsNegative() {
		return nil, errors.New("prices must not be negative")
	}
	return &payload, nil
}

// saveUploadedImage stores the optional image part and returns its filename.
// Files that are not allowed images are dropped without error.
func saveUploadedImage(c echo.Context) (string, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return "", nil
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return webserver.GetAppContext(c).Images().Save(fh)
}

func createProduct(c echo.Context) error {
	payload, err := bindProduct(c)
	if err != nil {
		return handleValidationError(c, err)
	}

	image, err := saveUploadedImage(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to store image", err.Error())
	}

	p := &domain.Product{
		Name:        payload.Name,
		Category:    payload.Category,
		BuyPriceUSD: payload.BuyPriceUSD,
		SellPrice:   payload.SellPrice,
		Quantity:    payload.Quantity,
		Notes:       payload.Notes,
		Image:       image,
		Active:      true,
	}
	if err := productRepo(c).Create(c.Request().Context(), p); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	addOprLog(c, "product_create", fmt.Sprintf("created product #%d %s", p.ID, p.Name))
	return c.JSON(http.StatusCreated, Response{Code: "OK", Data: p})
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	repo := productRepo(c)
	p, err := repo.GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}

	payload, err := bindProduct(c)
	if err != nil {
		return handleValidationError(c, err)
	}
	image, err := saveUploadedImage(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to store image", err.Error())
	}

	oldImage := p.Image
	p.Name = payload.Name
	p.Category = payload.Category
	p.BuyPriceUSD = payload.BuyPriceUSD
	p.SellPrice = payload.SellPrice
	p.Quantity = payload.Quantity
	p.Notes = payload.Notes
	if image != "" {
		p.Image = image
	}
	if p.Quantity > 0 {
		p.Active = true
	}

	if err := repo.Update(c.Request().Context(), p); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	if image != "" && oldImage != "" && oldImage != image {
		webserver.GetAppContext(c).Images().Remove(oldImage)
	}
	addOprLog(c, "product_update", fmt.Sprintf("updated product #%d %s", p.ID, p.Name))
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	hard, err := productRepo(c).Delete(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	zap.L().Info("product deleted", zap.Int64("id", id), zap.Bool("hard", hard))
	addOprLog(c, "product_delete", fmt.Sprintf("deleted product #%d (hard=%t)", id, hard))
	return ok(c, map[string]interface{}{"id": id, "deleted": hard, "deactivated": !hard})
}
