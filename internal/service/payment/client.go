package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

const defaultRequestTimeout = 10 * time.Second

// Client — HTTP-клиент платёжного сервиса.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Entry
}

// NewClient создаёт клиент платёжного сервиса.
func NewClient(baseURL string, logger *log.Entry) *Client {
	if logger == nil {
		logger = log.WithField("component", "payment-client")
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}
}

type sessionItemPayload struct {
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
	Quantity   int32  `json:"quantity"`
}

type sessionRequestPayload struct {
	OrderID  string               `json:"order_id"`
	Currency string               `json:"currency"`
	Items    []sessionItemPayload `json:"items"`
}

type sessionResponsePayload struct {
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
}

// CreateSession запрашивает платёжную сессию через POST /payments/sessions.
func (c *Client) CreateSession(ctx context.Context, req domain.SessionRequest) (domain.PaymentSession, error) {
	items := make([]sessionItemPayload, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, sessionItemPayload{
			Name:       item.Name,
			PriceMinor: item.PriceMinor,
			Quantity:   item.Quantity,
		})
	}

	body, err := json.Marshal(sessionRequestPayload{
		OrderID:  req.OrderID,
		Currency: req.Currency,
		Items:    items,
	})
	if err != nil {
		return domain.PaymentSession{}, fmt.Errorf("marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments/sessions", bytes.NewReader(body))
	if err != nil {
		return domain.PaymentSession{}, fmt.Errorf("build session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.WithError(err).WithField("order_id", req.OrderID).Warn("payment session request failed")
		return domain.PaymentSession{}, fmt.Errorf("call payment service: %w: %w", domain.ErrPaymentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.WithFields(log.Fields{
			"order_id": req.OrderID,
			"status":   resp.StatusCode,
		}).Warn("payment service returned unexpected status")
		return domain.PaymentSession{}, fmt.Errorf("payment status %d: %w", resp.StatusCode, domain.ErrPaymentUnavailable)
	}

	var payload sessionResponsePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.PaymentSession{}, fmt.Errorf("decode session response: %w: %w", domain.ErrPaymentUnavailable, err)
	}
	if payload.SessionURL == "" {
		return domain.PaymentSession{}, fmt.Errorf("empty session url: %w", domain.ErrPaymentUnavailable)
	}

	return domain.PaymentSession{ID: payload.SessionID, URL: payload.SessionURL}, nil
}

var _ domain.PaymentService = (*Client)(nil)
