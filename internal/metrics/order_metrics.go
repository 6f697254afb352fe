package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	ordersCreated     prometheus.Counter
	createFailed      *prometheus.CounterVec
	paymentsConfirmed prometheus.Counter
	paymentsDuplicate prometheus.Counter
	paymentsOrphaned  prometheus.Counter

	// sessionFailures считает заказы, сохранённые без платёжной сессии, —
	// окно несогласованности, которое разбирает воркер реконсиляции.
	sessionFailures  prometheus.Counter
	sessionRecovered prometheus.Counter
	awaitingSession  prometheus.Gauge

	createDuration prometheus.Histogram
}

// NewOrderMetrics создаёт и регистрирует метрики в default registerer.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders persisted",
		}),
		createFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_create_failed_total",
			Help: "Total number of failed order creations grouped by reason",
		}, []string{"reason"}),
		paymentsConfirmed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_payments_confirmed_total",
			Help: "Total number of processed payment confirmations",
		}),
		paymentsDuplicate: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_payments_duplicate_total",
			Help: "Total number of duplicate payment confirmations skipped",
		}),
		paymentsOrphaned: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_payments_orphaned_total",
			Help: "Total number of payment confirmations referencing unknown orders",
		}),
		sessionFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_payment_session_failures_total",
			Help: "Total number of orders persisted without a payment session",
		}),
		sessionRecovered: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_payment_session_recovered_total",
			Help: "Total number of payment sessions created by the reconcile worker",
		}),
		awaitingSession: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "orders_awaiting_payment_session",
			Help: "Current number of pending orders without a payment session",
		}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orders_create_duration_seconds",
			Help:    "Duration of the order creation workflow in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// RecordCreateFailed увеличивает счётчик неудачных созданий по причине.
func (m *OrderMetrics) RecordCreateFailed(reason string) {
	if m == nil {
		return
	}
	m.createFailed.WithLabelValues(reason).Inc()
}

// RecordPaymentConfirmed увеличивает счётчик обработанных подтверждений.
func (m *OrderMetrics) RecordPaymentConfirmed() {
	if m == nil {
		return
	}
	m.paymentsConfirmed.Inc()
}

// RecordPaymentDuplicate увеличивает счётчик повторных подтверждений.
func (m *OrderMetrics) RecordPaymentDuplicate() {
	if m == nil {
		return
	}
	m.paymentsDuplicate.Inc()
}

// RecordPaymentOrphaned увеличивает счётчик подтверждений без заказа.
func (m *OrderMetrics) RecordPaymentOrphaned() {
	if m == nil {
		return
	}
	m.paymentsOrphaned.Inc()
}

// RecordSessionFailure увеличивает счётчик заказов без платёжной сессии.
func (m *OrderMetrics) RecordSessionFailure() {
	if m == nil {
		return
	}
	m.sessionFailures.Inc()
}

// RecordSessionRecovered увеличивает счётчик восстановленных сессий.
func (m *OrderMetrics) RecordSessionRecovered() {
	if m == nil {
		return
	}
	m.sessionRecovered.Inc()
}

// SetAwaitingSession обновляет gauge заказов без сессии.
func (m *OrderMetrics) SetAwaitingSession(count int) {
	if m == nil {
		return
	}
	m.awaitingSession.Set(float64(count))
}

// RecordCreateDuration фиксирует длительность workflow создания.
func (m *OrderMetrics) RecordCreateDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.createDuration.Observe(d.Seconds())
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}
