package app

import (
	"context"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("unexpected http addr: %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("unexpected metrics addr: %s", cfg.MetricsAddr)
	}
	if cfg.Currency != "usd" {
		t.Errorf("unexpected currency: %s", cfg.Currency)
	}
	if cfg.ReconcileInterval != 30*time.Second {
		t.Errorf("unexpected reconcile interval: %s", cfg.ReconcileInterval)
	}
}

func TestNewDependencies_InMemoryFallback(t *testing.T) {
	logger := log.New().WithField("component", "test")

	deps, err := NewDependencies(context.Background(), Config{}, logger)
	if err != nil {
		t.Fatalf("NewDependencies: %v", err)
	}
	defer deps.Close()

	if deps.Repo == nil {
		t.Fatal("expected in-memory repository")
	}
	if deps.Store != nil {
		t.Fatal("store must be nil without postgres dsn")
	}
	if deps.CatalogSvc == nil || deps.PaymentSvc == nil {
		t.Fatal("expected mock catalog and payment services")
	}
}

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	logger := log.New().WithField("component", "test")

	producer, err := initKafkaProducer("", logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if producer != nil {
		t.Fatal("producer must be nil for empty brokers")
	}

	consumer, err := initPaymentConsumer("", nil, nil, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if consumer != nil {
		t.Fatal("consumer must be nil for empty brokers")
	}
}
