// Package reconcile закрывает окно несогласованности workflow создания заказа:
// заказ сохранён, а платёжную сессию создать не удалось. Воркер периодически
// находит такие заказы и повторяет создание сессии.
package reconcile

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/metrics"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultBatchSize    = 50
	defaultMinAge       = 1 * time.Minute
)

// WorkerOptions задаёт параметры воркера реконсиляции.
type WorkerOptions struct {
	Logger       *log.Entry
	Metrics      *metrics.OrderMetrics
	PollInterval time.Duration
	BatchSize    int
	MinAge       time.Duration
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики воркера.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(opts *WorkerOptions) {
		opts.Metrics = m
	}
}

// WithPollInterval задаёт частоту опроса хранилища.
func WithPollInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.PollInterval = interval
	}
}

// WithBatchSize задаёт размер батча заказов за один цикл.
func WithBatchSize(batchSize int) Option {
	return func(opts *WorkerOptions) {
		opts.BatchSize = batchSize
	}
}

// WithMinAge задаёт минимальный возраст заказа перед повтором: свежие заказы
// ещё может доделать сам workflow создания.
func WithMinAge(minAge time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.MinAge = minAge
	}
}

// Worker повторяет создание платёжных сессий для заказов, оставшихся без них.
type Worker struct {
	repo         domain.OrderRepository
	catalog      domain.CatalogService
	payments     domain.PaymentService
	logger       *log.Entry
	metrics      *metrics.OrderMetrics
	pollInterval time.Duration
	batchSize    int
	minAge       time.Duration
}

// NewWorker создаёт воркер реконсиляции платёжных сессий.
func NewWorker(
	repo domain.OrderRepository,
	catalog domain.CatalogService,
	payments domain.PaymentService,
	options ...Option,
) *Worker {
	opts := WorkerOptions{
		PollInterval: defaultPollInterval,
		BatchSize:    defaultBatchSize,
		MinAge:       defaultMinAge,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "session-reconciler")
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MinAge < 0 {
		opts.MinAge = 0
	}

	return &Worker{
		repo:         repo,
		catalog:      catalog,
		payments:     payments,
		logger:       logger,
		metrics:      opts.Metrics,
		pollInterval: opts.PollInterval,
		batchSize:    opts.BatchSize,
		minAge:       opts.MinAge,
	}
}

// Run запускает периодическую реконсиляцию до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.payments == nil {
		w.logger.Warn("session reconciler is disabled: repo or payment service is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce выполняет один цикл реконсиляции и возвращает число
// восстановленных сессий.
func (w *Worker) ProcessOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	olderThan := time.Now().UTC().Add(-w.minAge)
	orders, err := w.repo.ListAwaitingSession(olderThan, w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to list orders awaiting payment session")
		return 0
	}
	w.metrics.SetAwaitingSession(len(orders))
	if len(orders) == 0 {
		return 0
	}

	recovered := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			break
		}
		if w.recoverSession(ctx, order) {
			recovered++
		}
	}

	if recovered > 0 {
		w.logger.WithFields(log.Fields{
			"recovered": recovered,
			"batch":     len(orders),
		}).Info("payment sessions recovered")
	}
	w.metrics.SetAwaitingSession(len(orders) - recovered)
	return recovered
}

func (w *Worker) recoverSession(ctx context.Context, order domain.Order) bool {
	request, err := w.sessionRequest(ctx, order)
	if err != nil {
		w.logger.WithError(err).WithField("order_id", order.ID).
			Warn("failed to build session request, will retry next cycle")
		return false
	}

	session, err := w.payments.CreateSession(ctx, request)
	if err != nil {
		w.logger.WithError(err).WithField("order_id", order.ID).
			Warn("payment session retry failed")
		return false
	}

	if err := w.repo.SetPaymentSession(order.ID, session.URL, time.Now().UTC()); err != nil {
		w.logger.WithError(err).WithField("order_id", order.ID).
			Warn("failed to store recovered payment session url")
		return false
	}

	w.metrics.RecordSessionRecovered()
	w.logger.WithFields(log.Fields{
		"order_id":   order.ID,
		"session_id": session.ID,
	}).Info("payment session recovered")
	return true
}

// sessionRequest восстанавливает payload платёжной сессии: цены берутся из
// сохранённых позиций, имена перечитываются из каталога.
func (w *Worker) sessionRequest(ctx context.Context, order domain.Order) (domain.SessionRequest, error) {
	ids := make([]string, 0, len(order.Lines))
	seen := make(map[string]struct{}, len(order.Lines))
	for _, line := range order.Lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}

	products, err := w.catalog.ValidateProducts(ctx, ids)
	if err != nil {
		return domain.SessionRequest{}, err
	}
	byID := domain.CatalogByID(products)

	items := make([]domain.SessionItem, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, domain.SessionItem{
			Name:       byID[line.ProductID].Name,
			PriceMinor: line.PriceMinor,
			Quantity:   line.Quantity,
		})
	}
	return domain.SessionRequest{
		OrderID:  order.ID,
		Currency: order.Currency,
		Items:    items,
	}, nil
}
