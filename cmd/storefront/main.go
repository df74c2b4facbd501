package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/joao-fontenele/storefront/internal/accounts"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const serviceName = "storefront"

func main() {
	ctx := context.Background()

	var cfg config.Storefront
	if err := config.Load(&cfg); err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(os.Stdout, serviceName, cfg.LogLevel)

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Trace(serviceName))
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	metrics, err := telemetry.NewMetrics(otel.Meter(serviceName))
	if err != nil {
		logger.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenPostgres(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var notifier *notify.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers)
		defer func() { _ = producer.Close() }()
		notifier = notify.NewQueued(producer, metrics, logger)
		logger.Info("notifications queued to kafka", "brokers", cfg.KafkaBrokers)
	} else {
		httpClient := &http.Client{
			Timeout:   cfg.NotifyTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
		notifier = notify.NewDirect(notify.NewEmailClient(cfg.EmailServiceURL, httpClient), metrics, logger)
		logger.Info("notifications sent directly", "email_service_url", cfg.EmailServiceURL)
	}

	products := catalog.NewProductRepository(db)
	customers := accounts.NewCustomerRepository(db)

	tokens := accounts.NewTokens(accounts.TokenConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		ResetTTL:   cfg.ResetTokenTTL,
	})
	accountService := accounts.NewService(customers, tokens, notifier, accounts.Config{
		FrontendURL:   cfg.FrontendURL,
		NotifyTimeout: cfg.NotifyTimeout,
	}, logger)

	cartManager := cart.NewManager(cart.NewCartRepository(db), products, cfg.MediaBaseURL)

	workflow := orders.NewWorkflow(orders.NewOrderRepository(db), customers, notifier, orders.WorkflowConfig{
		NotifyTimeout: cfg.NotifyTimeout,
		MediaBaseURL:  cfg.MediaBaseURL,
	}, metrics, logger)

	auth := accounts.NewMiddleware(accountService, logger)
	catalogHandler := catalog.NewHandler(products, logger)
	accountHandler := accounts.NewHandler(accountService, logger)
	cartHandler := cart.NewHandler(cartManager, logger)
	orderHandler := orders.NewHandler(workflow, logger)

	route := telemetry.WithHTTPRoute

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", route(catalogHandler.HandleList))

	mux.HandleFunc("POST /register", route(accountHandler.HandleRegister))
	mux.HandleFunc("POST /login", route(accountHandler.HandleLogin))
	mux.HandleFunc("POST /token/refresh", route(accountHandler.HandleRefresh))
	mux.HandleFunc("POST /logout", route(auth.Require(accountHandler.HandleLogout)))
	mux.HandleFunc("GET /customer", route(auth.Require(accountHandler.HandleProfile)))
	mux.HandleFunc("PUT /customer", route(auth.Require(accountHandler.HandleUpdateProfile)))
	mux.HandleFunc("POST /request-password-reset", route(accountHandler.HandleRequestPasswordReset))
	mux.HandleFunc("POST /reset-password/{uid}/{token}", route(accountHandler.HandleResetPassword))

	mux.HandleFunc("GET /cart", route(auth.Require(cartHandler.HandleView)))
	mux.HandleFunc("POST /cart/{productId}", route(auth.Require(cartHandler.HandleAdd)))
	mux.HandleFunc("PUT /cart/{productId}", route(auth.Require(cartHandler.HandleSetQuantity)))
	mux.HandleFunc("DELETE /cart/{productId}", route(auth.Require(cartHandler.HandleRemove)))

	mux.HandleFunc("POST /place-order", route(auth.Require(orderHandler.HandlePlace)))
	mux.HandleFunc("GET /user-orders", route(auth.Require(orderHandler.HandleList)))
	mux.HandleFunc("GET /order/{id}", route(auth.Require(orderHandler.HandleGet)))
	mux.HandleFunc("DELETE /order/{id}", route(auth.Require(orderHandler.HandleCancel)))
	mux.HandleFunc("PATCH /order/{id}/shipping-status", route(auth.Require(orderHandler.HandleSetShippingStatus)))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10*time.Second + cfg.NotifyTimeout,
	}

	go func() {
		logger.Info("starting storefront service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
