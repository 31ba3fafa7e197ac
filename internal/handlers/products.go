package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/services"
)

// UploadTarget picks the base URL for new image references and reports the
// per-image size limit.
type UploadTarget interface {
	BaseURL(r *http.Request) string
	MaxBytes() int64
}

var errNoUser = errors.New("no authenticated user in context")

func currentUser(c *gin.Context, log *zap.Logger) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, log, models.Unexpected("Internal server error", errNoUser))
	}
	return user, ok
}

func ListProducts(svc *services.ProductService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, log)
		if !ok {
			return
		}

		products, err := svc.List(c.Request.Context(), user, parseBoolQuery(c, "isPublished"))
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"count":    len(products),
			"products": products,
		})
	}
}

func GetProduct(svc *services.ProductService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, log)
		if !ok {
			return
		}

		product, err := svc.Get(c.Request.Context(), user, c.Param("id"))
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
	}
}

func CreateProduct(svc *services.ProductService, uploads UploadTarget, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, log)
		if !ok {
			return
		}
		defer cleanupMultipart(c)

		input, files, err := parseProductRequest(c, svc.MaxImages(), uploadLimit(svc.MaxImages(), uploads.MaxBytes()))
		if err != nil {
			respondError(c, log, err)
			return
		}

		product, err := svc.Create(c.Request.Context(), user, input, files, uploads.BaseURL(c.Request))
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Product created successfully",
			"product": product,
		})
	}
}

func UpdateProduct(svc *services.ProductService, uploads UploadTarget, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, log)
		if !ok {
			return
		}
		if err := svc.CheckEditable(c.Request.Context(), user, c.Param("id")); err != nil {
			respondError(c, log, err)
			return
		}
		defer cleanupMultipart(c)

		input, files, err := parseProductRequest(c, svc.MaxImages(), uploadLimit(svc.MaxImages(), uploads.MaxBytes()))
		if err != nil {
			respondError(c, log, err)
			return
		}

		product, err := svc.Update(c.Request.Context(), user, c.Param("id"), input, files, uploads.BaseURL(c.Request))
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Product updated successfully",
			"product": product,
		})
	}
}

func DeleteProduct(svc *services.ProductService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, log)
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully"})
	}
}

func TogglePublish(svc *services.ProductService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, log)
		if !ok {
			return
		}

		product, err := svc.TogglePublish(c.Request.Context(), user, c.Param("id"))
		if err != nil {
			respondError(c, log, err)
			return
		}

		state := "unpublished"
		if product.IsPublished {
			state = "published"
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Product " + state + " successfully",
			"product": product,
		})
	}
}
