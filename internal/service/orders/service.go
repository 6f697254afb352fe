package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orders/internal/metrics"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// NamedLine — позиция заказа, обогащённая именем товара из каталога.
// Имя не персистится: оно перечитывается из каталога на каждый запрос.
type NamedLine struct {
	ProductID  string
	Name       string
	Quantity   int32
	PriceMinor int64
}

// OrderView — заказ вместе с именованными позициями для ответа клиенту.
type OrderView struct {
	Order domain.Order
	Lines []NamedLine
}

// CreateResult — результат workflow создания заказа.
// SessionError не пустой, если заказ сохранён, а платёжную сессию создать
// не удалось: заказ остаётся pending и подбирается воркером реконсиляции.
type CreateResult struct {
	Order          OrderView
	PaymentSession *domain.PaymentSession
	SessionError   string
}

// PageMeta — метаданные offset-пагинации.
type PageMeta struct {
	Page     int
	Total    int
	LastPage int
}

// Page — страница заказов с метаданными.
type Page struct {
	Data []domain.Order
	Meta PageMeta
}

// Service — оркестратор жизненного цикла заказа: создание через валидацию
// каталога, запросы, смена статуса и обработка подтверждений оплаты.
type Service struct {
	repo     domain.OrderRepository
	catalog  domain.CatalogService
	payments domain.PaymentService
	currency string
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
	producer *kafka.Producer // опциональный Kafka producer для событий заказа
}

// NewService создаёт рабочий экземпляр оркестратора.
func NewService(
	repo domain.OrderRepository,
	catalog domain.CatalogService,
	payments domain.PaymentService,
	currency string,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	return &Service{
		repo:     repo,
		catalog:  catalog,
		payments: payments,
		currency: currency,
		logger:   logger,
		metrics:  metrics.NewOrderMetrics(),
	}
}

// NewServiceWithKafka создаёт оркестратор, публикующий события заказа в Kafka.
func NewServiceWithKafka(
	repo domain.OrderRepository,
	catalog domain.CatalogService,
	payments domain.PaymentService,
	currency string,
	producer *kafka.Producer,
	logger *log.Entry,
) *Service {
	svc := NewService(repo, catalog, payments, currency, logger)
	svc.producer = producer
	return svc
}

// NewServiceWithoutMetrics создаёт оркестратор без метрик (для тестов).
func NewServiceWithoutMetrics(
	repo domain.OrderRepository,
	catalog domain.CatalogService,
	payments domain.PaymentService,
	currency string,
	logger *log.Entry,
) *Service {
	svc := NewService(repo, catalog, payments, currency, logger)
	svc.metrics = nil
	return svc
}

// Create выполняет workflow создания заказа: валидация каталога → расчёт
// итогов → атомарное сохранение → платёжная сессия.
// Любая ошибка до сохранения прерывает операцию целиком; ошибка платёжной
// сессии после сохранения заказ не откатывает.
func (s *Service) Create(ctx context.Context, items []domain.ItemRequest) (CreateResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordCreateDuration(time.Since(start))
	}()

	if err := validateItems(items); err != nil {
		s.metrics.RecordCreateFailed("validation")
		return CreateResult{}, err
	}

	ids := distinctProductIDs(items)
	products, err := s.catalog.ValidateProducts(ctx, ids)
	if err != nil {
		s.logger.WithError(err).Warn("catalog validation failed, aborting create")
		s.metrics.RecordCreateFailed("catalog")
		return CreateResult{}, fmt.Errorf("validate products: %w", err)
	}
	byID := domain.CatalogByID(products)

	totalAmount, totalItems, err := domain.ComputeTotals(items, byID)
	if err != nil {
		// После успешной валидации это нарушение инварианта, а не штатный путь.
		s.metrics.RecordCreateFailed("pricing")
		return CreateResult{}, fmt.Errorf("compute totals: %w", err)
	}

	now := time.Now().UTC()
	lines := make([]domain.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.OrderLine{
			ID:         uuid.NewString(),
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceMinor: byID[item.ProductID].PriceMinor,
			CreatedAt:  now,
		})
	}

	order := domain.Order{
		ID:               uuid.NewString(),
		Status:           domain.OrderStatusPending,
		Currency:         s.currency,
		TotalAmountMinor: totalAmount,
		TotalItems:       totalItems,
		Lines:            lines,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.metrics.RecordCreateFailed("invariants")
		return CreateResult{}, fmt.Errorf("order invariants violated: %v", errs)
	}

	if err := s.repo.Create(order); err != nil {
		s.logger.WithError(err).Error("failed to persist order")
		s.metrics.RecordCreateFailed("storage")
		return CreateResult{}, fmt.Errorf("persist order: %w", err)
	}
	s.metrics.RecordOrderCreated()
	s.publishOrderEvent(kafka.EventTypeOrderCreated, order, map[string]interface{}{
		"total_amount_minor": order.TotalAmountMinor,
		"total_items":        order.TotalItems,
	})

	view := decorateOrder(order, byID)
	result := CreateResult{Order: view}

	session, err := s.payments.CreateSession(ctx, sessionRequest(order, view.Lines))
	if err != nil {
		// Принятое окно несогласованности: заказ сохранён, сессии нет.
		// Делаем его наблюдаемым вместо тихого проглатывания.
		s.logger.WithError(err).WithField("order_id", order.ID).
			Warn("order persisted but payment session creation failed")
		s.metrics.RecordSessionFailure()
		result.SessionError = err.Error()
		return result, nil
	}

	if err := s.repo.SetPaymentSession(order.ID, session.URL, time.Now().UTC()); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).
			Warn("failed to store payment session url")
	} else {
		result.Order.Order.PaymentSessionURL = session.URL
	}
	result.PaymentSession = &session

	return result, nil
}

// List возвращает страницу заказов с метаданными пагинации.
func (s *Service) List(ctx context.Context, page, limit int, status *domain.OrderStatus) (Page, error) {
	_ = ctx
	if page < 1 || limit < 1 {
		return Page{}, domain.ErrInvalidPagination
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	total, err := s.repo.Count(status)
	if err != nil {
		return Page{}, fmt.Errorf("count orders: %w", err)
	}

	data, err := s.repo.List(page, limit, status)
	if err != nil {
		return Page{}, fmt.Errorf("list orders: %w", err)
	}

	lastPage := (total + limit - 1) / limit
	return Page{
		Data: data,
		Meta: PageMeta{Page: page, Total: total, LastPage: lastPage},
	}, nil
}

// Get возвращает заказ с позициями, обогащёнными актуальными именами из
// каталога. Недоступность каталога проваливает весь запрос: read path
// не доверяет денормализованным данным.
func (s *Service) Get(ctx context.Context, id string) (OrderView, error) {
	order, err := s.repo.Get(id)
	if err != nil {
		return OrderView{}, err
	}

	ids := make([]string, 0, len(order.Lines))
	seen := make(map[string]struct{}, len(order.Lines))
	for _, line := range order.Lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}

	products, err := s.catalog.ValidateProducts(ctx, ids)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", id).Warn("catalog lookup failed on read")
		return OrderView{}, fmt.Errorf("resolve product names: %w", err)
	}

	return decorateOrder(order, domain.CatalogByID(products)), nil
}

// ChangeStatus загружает заказ и переводит его в новый статус,
// сверяясь с таблицей переходов. Переход в текущий статус — no-op.
func (s *Service) ChangeStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	_ = ctx
	order, err := s.repo.Get(id)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status == status {
		return order, nil
	}
	if !domain.CanTransition(order.Status, status) {
		return domain.Order{}, fmt.Errorf("%s -> %s: %w", order.Status, status, domain.ErrStatusTransition)
	}

	updated, err := s.repo.UpdateStatus(id, status, time.Now().UTC())
	if err != nil {
		return domain.Order{}, fmt.Errorf("update status: %w", err)
	}

	s.publishOrderEvent(kafka.EventTypeOrderStatusChanged, updated, map[string]interface{}{
		"previous_status": string(order.Status),
	})
	return updated, nil
}

// MarkPaid применяет подтверждение оплаты: одной атомарной операцией
// переводит заказ в paid, сохраняет платёжную ссылку и создаёт чек.
// Повторное подтверждение уже оплаченного заказа — идемпотентный no-op.
func (s *Service) MarkPaid(ctx context.Context, paid domain.PaidOrder) (domain.Order, error) {
	_ = ctx
	current, err := s.repo.Get(paid.OrderID)
	if err != nil {
		if domain.IsNotFound(err) {
			// Сессии создаются только для сохранённых заказов — заказ обязан
			// существовать. Это аномалия, достойная алерта.
			s.metrics.RecordPaymentOrphaned()
		}
		return domain.Order{}, err
	}
	if current.Paid {
		s.logger.WithField("order_id", paid.OrderID).Debug("order already paid, skipping confirmation")
		s.metrics.RecordPaymentDuplicate()
		return current, nil
	}

	updated, err := s.repo.MarkPaid(paid.OrderID, paid.PaymentID, paid.ReceiptURL, time.Now().UTC())
	if err != nil {
		return domain.Order{}, fmt.Errorf("mark paid: %w", err)
	}
	s.metrics.RecordPaymentConfirmed()

	s.publishOrderEvent(kafka.EventTypeOrderPaid, updated, map[string]interface{}{
		"payment_id": paid.PaymentID,
	})
	return updated, nil
}

func validateItems(items []domain.ItemRequest) error {
	if len(items) == 0 {
		return fmt.Errorf("empty item list: %w", domain.ErrInvalidItems)
	}
	for i, item := range items {
		if item.ProductID == "" {
			return fmt.Errorf("item[%d] missing product_id: %w", i, domain.ErrInvalidItems)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item[%d] quantity must be > 0: %w", i, domain.ErrInvalidItems)
		}
	}
	return nil
}

func distinctProductIDs(items []domain.ItemRequest) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func decorateOrder(order domain.Order, byID map[string]domain.Product) OrderView {
	lines := make([]NamedLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, NamedLine{
			ProductID:  line.ProductID,
			Name:       byID[line.ProductID].Name,
			Quantity:   line.Quantity,
			PriceMinor: line.PriceMinor,
		})
	}
	return OrderView{Order: order, Lines: lines}
}

func sessionRequest(order domain.Order, lines []NamedLine) domain.SessionRequest {
	items := make([]domain.SessionItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.SessionItem{
			Name:       line.Name,
			PriceMinor: line.PriceMinor,
			Quantity:   line.Quantity,
		})
	}
	return domain.SessionRequest{
		OrderID:  order.ID,
		Currency: order.Currency,
		Items:    items,
	}
}

func (s *Service) publishOrderEvent(eventType kafka.EventType, order domain.Order, metadata map[string]interface{}) {
	if s.producer == nil {
		return // Kafka не настроен, пропускаем
	}

	event := kafka.NewOrderEvent(eventType, order.ID, string(order.Status), metadata)
	if err := s.producer.PublishEvent(kafka.TopicOrderEvents, order.ID, event); err != nil {
		// Логируем ошибку, но не прерываем workflow - Kafka опциональный
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   order.ID,
		}).Warn("failed to publish order event to kafka")
	}
}
