package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/service/catalog"
	"github.com/vladislavdragonenkov/orders/internal/service/payment"
	"github.com/vladislavdragonenkov/orders/internal/storage/memory"
	"github.com/vladislavdragonenkov/orders/internal/storage/postgres"
)

// Dependencies содержит зависимости приложения: хранилище и клиенты
// внешних сервисов.
type Dependencies struct {
	Repo       domain.OrderRepository
	CatalogSvc domain.CatalogService
	PaymentSvc domain.PaymentService
	Store      *postgres.Store // nil при in-memory хранилище
	Logger     *log.Entry
}

// NewDependencies собирает зависимости по конфигурации.
// Пустой PostgresDSN включает in-memory хранилище, пустые URL внешних
// сервисов подменяются mock-реализациями: так сервис поднимается локально
// без инфраструктуры.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		deps.Store = store
		deps.Repo = postgres.NewOrderRepository(store)
		logger.Info("postgres storage initialized")
	} else {
		deps.Repo = memory.NewOrderRepository()
		logger.Warn("postgres dsn is empty, using in-memory storage")
	}

	if cfg.CatalogURL != "" {
		deps.CatalogSvc = catalog.NewClient(cfg.CatalogURL, logger.WithField("component", "catalog-client"))
	} else {
		deps.CatalogSvc = catalog.NewMockService()
		logger.Warn("catalog url is empty, using mock catalog service")
	}

	if cfg.PaymentURL != "" {
		deps.PaymentSvc = payment.NewClient(cfg.PaymentURL, logger.WithField("component", "payment-client"))
	} else {
		deps.PaymentSvc = payment.NewMockService()
		logger.Warn("payment url is empty, using mock payment service")
	}

	return deps, nil
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() {
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
