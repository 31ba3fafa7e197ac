package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/events"
	"catalog/internal/logger"
	"catalog/internal/notify"
	"catalog/internal/repository"
	"catalog/internal/router"
	"catalog/internal/services"
	"catalog/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}

	logr, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer func() { _ = logr.Sync() }()

	gin.SetMode(cfg.GinMode)

	var (
		users    repository.UserStore
		products repository.ProductStore
		ping     func(ctx context.Context) error
		client   *mongo.Client
	)
	switch cfg.StoreDriver {
	case "memory":
		logr.Warn("using in-memory store, data is lost on restart")
		users = repository.NewMemoryUserStore()
		products = repository.NewMemoryProductStore()
	default:
		client, err = database.Connect(cfg.MongoURI)
		if err != nil {
			logr.Fatal("mongo connect failed", zap.Error(err))
		}
		db := client.Database(cfg.DBName)
		logr.Info("MongoDB connected", zap.String("db", db.Name()))

		dbLog := logr.Named("database")
		if err := database.EnsureUserIndexes(db, dbLog); err != nil {
			logr.Warn("user index warning", zap.Error(err))
		}
		if err := database.EnsureProductIndexes(db, dbLog); err != nil {
			logr.Warn("product index warning", zap.Error(err))
		}

		users = repository.NewMongoUserStore(db)
		products = repository.NewMongoProductStore(db)
		ping = func(ctx context.Context) error { return database.Ping(ctx, db) }
	}

	attachments, err := storage.NewAttachments(storage.Options{
		Dir:       cfg.UploadDir,
		URLPrefix: cfg.UploadURLPrefix,
		BaseURL:   cfg.BaseURL,
		MaxBytes:  cfg.MaxImageBytes,
	}, logr.Named("uploads"))
	if err != nil {
		logr.Fatal("upload dir", zap.Error(err))
	}

	notifier := notify.FromSettings(notify.Settings{
		TwilioSID:           cfg.TwilioSID,
		TwilioToken:         cfg.TwilioToken,
		TwilioFrom:          cfg.TwilioFrom,
		PostmarkServerToken: cfg.PostmarkServerToken,
		PostmarkFrom:        cfg.PostmarkFrom,
	}, logr.Named("notify"))

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logr.Warn("event publishing disabled", zap.Error(err))
		} else {
			logr.Info("publishing events", zap.String("exchange", cfg.AMQPExchange))
			publisher = p
		}
	}
	defer func() { _ = publisher.Close() }()

	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	auth := services.NewAuthenticator(users, tokens, notifier, services.OTPConfig{
		Length: cfg.OTPLength,
		TTL:    cfg.OTPTTL,
		Echo:   cfg.OTPEcho,
	}, logr.Named("auth"))
	catalog := services.NewProductService(products, attachments, publisher, cfg.MaxImages, logr.Named("products"))

	engine := router.New(router.Deps{
		Auth:           auth,
		Sessions:       services.NewSessionVerifier(tokens, users),
		Products:       catalog,
		Attachments:    attachments,
		Ping:           ping,
		RequestTimeout: cfg.RequestTimeout,
		Log:            logr,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if client != nil {
		if err := client.Disconnect(ctx); err != nil {
			logr.Error("mongo disconnect failed", zap.Error(err))
		}
	}
}
