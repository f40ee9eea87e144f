package main

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopfront/cart"
	"shopfront/checkout"
	"shopfront/config"
	"shopfront/db"
	"shopfront/middleware"
	"shopfront/orders"
	"shopfront/pay"
	"shopfront/products"
	"shopfront/ratelim"
	"shopfront/rdx"
	"shopfront/receipt"
	"shopfront/routes"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// XSS, content sniffing, framing
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		// HSTS (must be on HTTPS)
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		// cart and checkout responses are per-session
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working through the logger.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// loggingMiddleware logs each request method, path, status and duration.
func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func newGateway(cfg *config.Config, logger *zap.Logger) pay.Gateway {
	if cfg.GatewayURL == "" {
		logger.Warn("PAYMENT_GATEWAY_URL not set; using the local gateway")
		return pay.LocalGateway{}
	}
	return pay.NewHTTPGateway(cfg.GatewayURL, cfg.GatewayKey, logger)
}

func main() {
	// load .env if present
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()
	if envErr != nil {
		logger.Info("no .env file found; using system environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	database, err := db.Connect(startCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal("mongo connection failed", zap.Error(err))
	}
	if err := database.CreateIndexes(startCtx); err != nil {
		logger.Fatal("mongo indexes failed", zap.Error(err))
	}

	redisClient, err := rdx.NewClient(startCtx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}

	idemStore := pay.NewMongoIdempotencyStore(database.IdempotencyCollection)
	if err := idemStore.InitIndexes(startCtx); err != nil {
		logger.Fatal("idempotency indexes failed", zap.Error(err))
	}

	catalog := products.NewCachedCatalog(
		products.NewMongoCatalog(database.ProductsCollection),
		products.NewRedisCache(redisClient),
		logger,
	)
	sessions := cart.NewSessions(cfg.CartIdleTTL, logger)
	recorder := orders.NewRecorder(orders.NewMongoStore(database.OrdersCollection), logger)
	renderer := receipt.NewRenderer(cfg.ReceiptSecret, cfg.ReceiptImageDir, cfg.Currency)

	hub := checkout.NewHub(logger)
	orch := checkout.NewOrchestrator(
		newGateway(cfg, logger),
		recorder,
		rdx.NewLocker(redisClient, "checkout_lock:", 30*time.Second),
		hub,
		checkout.Config{Currency: cfg.Currency, PaymentTimeout: cfg.PaymentTimeout},
		logger,
	)

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)

	go hub.Run(ctx)
	go sessions.RunJanitor(ctx, 5*time.Minute)
	go orch.RunJanitor(ctx, time.Minute)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rateLimiter.Cleanup(10 * time.Minute)
			}
		}
	}()

	router := httprouter.New()
	routes.RoutesWrapper(router, routes.Deps{
		Auth:        middleware.NewAuthenticator(cfg.JWTSecret),
		Session:     middleware.Session(cfg.SecureCookies),
		Idempotency: pay.NewIdempotency(idemStore, logger),
		Cart:        cart.NewHandler(sessions, catalog, logger),
		Checkout:    checkout.NewHandler(orch, sessions, hub, logger),
		Orders:      orders.NewHandler(recorder, renderer, cfg.Currency, logger),
		Products:    products.NewHandler(catalog, logger),
		Health: map[string]routes.Pinger{
			"mongo": func(ctx context.Context) error { return database.Client.Ping(ctx, readpref.Primary()) },
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	}, rateLimiter)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", pay.IdempotencyHeader},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(logger, securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received; shutting down gracefully")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		logger.Warn("redis close failed", zap.Error(err))
	}
	if err := database.Close(shutdownCtx); err != nil {
		logger.Warn("mongo close failed", zap.Error(err))
	}
	logger.Info("server stopped cleanly")
}
