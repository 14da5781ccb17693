// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/order-api/internal/api"
	"github.com/yourusername/order-api/internal/auth"
	"github.com/yourusername/order-api/internal/config"
	"github.com/yourusername/order-api/internal/orders"
	"github.com/yourusername/order-api/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// healthChecker はデータベースの疎通確認を行います。
type healthChecker interface {
	Check(ctx context.Context) error
}

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := setupStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	defer db.Close()

	// 署名鍵が無い場合はここで起動を中断する
	tokens, err := auth.NewTokenCodec([]byte(cfg.EncodingKey), cfg.TokenLifetime())
	if err != nil {
		log.Fatalf("Failed to initialize token codec: %v", err)
	}

	limiter, closeLimiter, err := setupLimiter(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize login limiter: %v", err)
	}
	defer closeLimiter()

	authManager, err := auth.NewManager(auth.Options{
		Users:   storage.NewUsers(db),
		Hasher:  auth.NewHasher(cfg.BcryptCost),
		Tokens:  tokens,
		Limiter: limiter,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize auth manager: %v", err)
	}

	// Ginルーターの初期化
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	corsConfig.AllowOrigins = splitOrigins(cfg.AllowedOrigin)
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodPatch,
	}
	corsConfig.AllowHeaders = []string{"Authorization", "Accept", "Content-Type"}
	corsConfig.MaxAge = time.Hour
	router.Use(cors.New(corsConfig))

	// ルーティングの設定
	setupRoutes(router, authManager, storage.NewOrders(db), storage.NewHealth(db), logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting API server", "addr", srv.Addr, "mode", cfg.GinMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// newLogger は LOG_LEVEL に応じた JSON ロガーを返します。不明な値は info 扱いです。
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func splitOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// handleHealth はヘルスチェックエンドポイントのハンドラーを返します。
func handleHealth(health healthChecker, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := health.Check(c.Request.Context()); err != nil {
			logger.Error("health check failed", "error", err)
			api.Respond(c, http.StatusServiceUnavailable, "Database unavailable", nil)
			return
		}
		api.Respond(c, http.StatusOK, "Server is healthy and running", "OK")
	}
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager, orderStore orders.Store, health healthChecker, logger *slog.Logger) {
	// ゲートは全ルートで動かし、ログイン必須かどうかはルート側で決める
	router.Use(authManager.Gate())
	router.NoRoute(api.NotFound)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/check_status", handleHealth(health, logger))
		v1.GET("/check_user_status", authManager.WhoAmI)

		users := v1.Group("/users")
		{
			users.POST("/register", authManager.Register)
			users.POST("/login", authManager.Login)
			users.GET("/fetch_all", authManager.RequireLogin(), authManager.ListUsers)
		}

		orderRoutes := v1.Group("/orders")
		orderRoutes.Use(authManager.RequireLogin())
		{
			orderRoutes.POST("/create_order", orders.CreateHandler(orderStore, logger))
			orderRoutes.GET("/get_one", orders.GetHandler(orderStore, logger))
			orderRoutes.GET("/order_list", orders.ListHandler(orderStore, logger))
			orderRoutes.GET("/delete_order", orders.DeleteHandler(orderStore, logger))
			orderRoutes.DELETE("/delete_order", orders.DeleteHandler(orderStore, logger))
		}
	}
}
