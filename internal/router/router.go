package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/services"
	"catalog/internal/storage"
)

type Deps struct {
	Auth           *services.Authenticator
	Sessions       middleware.SessionAuthenticator
	Products       *services.ProductService
	Attachments    *storage.Attachments
	Ping           func(ctx context.Context) error
	RequestTimeout time.Duration
	Log            *zap.Logger
}

// New builds the HTTP engine. Every /api/products route requires a session.
func New(d Deps) *gin.Engine {
	httpLog := d.Log.Named("http")
	authLog := d.Log.Named("auth")
	productLog := d.Log.Named("products")

	r := gin.New()
	r.Use(middleware.Recovery(httpLog), middleware.RequestLogger(httpLog))
	r.Static(d.Attachments.URLPrefix(), d.Attachments.Dir())

	api := r.Group("/api")
	api.Use(middleware.Timeout(d.RequestTimeout))

	api.GET("/health", handlers.Health(d.Ping, httpLog))

	auth := api.Group("/auth")
	{
		auth.POST("/login", handlers.Login(d.Auth, authLog))
		auth.POST("/verify-otp", handlers.VerifyOTP(d.Auth, authLog))
		auth.POST("/register", handlers.Register(d.Auth, authLog))
		auth.GET("/me", middleware.UserAuth(d.Sessions, authLog), handlers.GetMe(d.Auth))
	}

	products := api.Group("/products")
	products.Use(middleware.UserAuth(d.Sessions, authLog))
	{
		products.GET("", handlers.ListProducts(d.Products, productLog))
		products.GET("/:id", handlers.GetProduct(d.Products, productLog))
		products.POST("", handlers.CreateProduct(d.Products, d.Attachments, productLog))
		products.PUT("/:id", handlers.UpdateProduct(d.Products, d.Attachments, productLog))
		products.DELETE("/:id", handlers.DeleteProduct(d.Products, productLog))
		products.PATCH("/:id/publish", handlers.TogglePublish(d.Products, productLog))
	}

	return r
}
