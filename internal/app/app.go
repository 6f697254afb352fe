// Package app собирает сервис заказов: хранилище, внешние клиенты, Kafka,
// HTTP API и фоновую реконсиляцию платёжных сессий.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/orders/internal/health"
	"github.com/vladislavdragonenkov/orders/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orders/internal/metrics"
	"github.com/vladislavdragonenkov/orders/internal/service/orders"
	"github.com/vladislavdragonenkov/orders/internal/service/reconcile"
	httpapi "github.com/vladislavdragonenkov/orders/internal/transport/http"
	"github.com/vladislavdragonenkov/orders/internal/version"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	PostgresDSN  string
	KafkaBrokers string
	CatalogURL   string
	PaymentURL   string

	Currency string

	ReconcileInterval time.Duration
	ReconcileMinAge   time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:          ":8080",
		MetricsAddr:       ":9090",
		Currency:          "usd",
		ReconcileInterval: 30 * time.Second,
		ReconcileMinAge:   time.Minute,
	}
}

// Run запускает сервис и блокируется до отмены ctx или фатальной ошибки.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Kafka опционален: без брокера сервис работает, но не публикует события
	// и не получает подтверждения оплаты.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	serviceLogger := logger.WithField("component", "orders")
	var orderService *orders.Service
	if kafkaProducer != nil {
		orderService = orders.NewServiceWithKafka(
			deps.Repo, deps.CatalogSvc, deps.PaymentSvc, cfg.Currency, kafkaProducer, serviceLogger)
	} else {
		orderService = orders.NewService(
			deps.Repo, deps.CatalogSvc, deps.PaymentSvc, cfg.Currency, serviceLogger)
	}

	paymentHandler := kafka.NewPaymentSucceededHandler(
		orderService, logger.WithField("component", "payment-handler"))
	consumer, _ := initPaymentConsumer(cfg.KafkaBrokers, paymentHandler, kafkaProducer, logger)
	if consumer != nil {
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("payment consumer stopped with error")
			}
		}()
		defer func() {
			if err := consumer.Stop(); err != nil {
				logger.WithError(err).Warn("failed to stop payment consumer")
			}
		}()
	}

	reconciler := reconcile.NewWorker(deps.Repo, deps.CatalogSvc, deps.PaymentSvc,
		reconcile.WithLogger(logger.WithField("component", "session-reconciler")),
		reconcile.WithMetrics(metrics.NewOrderMetrics()),
		reconcile.WithPollInterval(cfg.ReconcileInterval),
		reconcile.WithMinAge(cfg.ReconcileMinAge),
	)
	go reconciler.Run(ctx)

	healthHandler := healthcheck.NewHandler(version.Version())
	if deps.Store != nil {
		store := deps.Store
		healthHandler.Register("storage", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx)
		})
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	defer shutdownHTTP(metricsSrv, logger)

	apiHandler := httpapi.NewOrderHandler(orderService, logger.WithField("component", "http"))
	apiSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewRouter(apiHandler),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}

// startMetricsServer поднимает служебный HTTP-сервер: метрики и health checks.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
