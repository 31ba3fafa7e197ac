package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog/internal/models"
	"catalog/internal/services"
)

const (
	maxMultipartMemory  = 32 << 20
	formFieldsAllowance = 1 << 20
)

// uploadLimit caps a product request body: every image at its size limit plus
// room for the text fields and multipart framing.
func uploadLimit(maxImages int, maxImageBytes int64) int64 {
	return int64(maxImages)*maxImageBytes + formFieldsAllowance
}

// parseProductRequest reads the product form fields and the "images" files.
// Each field's Set flag records presence; numeric fields sent empty count as
// absent. Bodies larger than maxBody are refused before anything is spooled.
func parseProductRequest(c *gin.Context, maxImages int, maxBody int64) (services.ProductInput, []*multipart.FileHeader, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
	if err := parseForm(c.Request); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.ProductInput{}, nil, models.Validationf("Request body exceeds %d MB", maxBody>>20)
		}
		return services.ProductInput{}, nil, models.Validationf("Invalid form data")
	}

	input := services.ProductInput{}

	// ---- STRING FIELDS ----

	if value, ok := c.GetPostForm("productName"); ok {
		input.ProductName = strings.TrimSpace(value)
		input.ProductNameSet = true
	}

	if value, ok := c.GetPostForm("productType"); ok {
		input.ProductType = strings.TrimSpace(value)
		input.ProductTypeSet = true
	}

	if value, ok := c.GetPostForm("brandName"); ok {
		input.BrandName = strings.TrimSpace(value)
		input.BrandNameSet = true
	}

	if value, ok := c.GetPostForm("exchangeEligibility"); ok {
		input.ExchangeEligibility = strings.TrimSpace(value)
		input.ExchangeEligibilitySet = true
	}

	// ---- NUMBER FIELDS ----

	if value, ok := postFormNumber(c, "quantityStock"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return services.ProductInput{}, nil, models.Validationf("quantityStock must be a whole number")
		}
		input.QuantityStock = parsed
		input.QuantityStockSet = true
	}

	if value, ok := postFormNumber(c, "mrp"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return services.ProductInput{}, nil, models.Validationf("mrp must be a number")
		}
		input.MRP = parsed
		input.MRPSet = true
	}

	if value, ok := postFormNumber(c, "sellingPrice"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return services.ProductInput{}, nil, models.Validationf("sellingPrice must be a number")
		}
		input.SellingPrice = parsed
		input.SellingPriceSet = true
	}

	// ---- IMAGES ----

	input.RemoveImages = c.PostFormArray("removeImages")

	var files []*multipart.FileHeader
	if c.Request.MultipartForm != nil {
		files = c.Request.MultipartForm.File["images"]
	}
	if len(files) > maxImages {
		return services.ProductInput{}, nil, models.Validationf("Too many files: at most %d images per request", maxImages)
	}

	return input, files, nil
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/") {
		return r.ParseMultipartForm(maxMultipartMemory)
	}
	return r.ParseForm()
}

func postFormNumber(c *gin.Context, key string) (string, bool) {
	value, ok := c.GetPostForm(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func parseBoolQuery(c *gin.Context, key string) *bool {
	value, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	parsed := value == "true"
	return &parsed
}

// cleanupMultipart removes temp files spilled to disk by ParseMultipartForm.
func cleanupMultipart(c *gin.Context) {
	if c.Request.MultipartForm != nil {
		_ = c.Request.MultipartForm.RemoveAll()
	}
}
