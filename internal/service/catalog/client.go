package catalog

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

const defaultRequestTimeout = 5 * time.Second

// Client — HTTP-клиент каталога товаров.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Entry
}

// NewClient создаёт клиент каталога с таймаутом на запрос.
func NewClient(baseURL string, logger *log.Entry) *Client {
	if logger == nil {
		logger = log.WithField("component", "catalog-client")
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}
}

type validateRequest struct {
	IDs []string `json:"ids"`
}

type productPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
}

// ValidateProducts резолвит пакет идентификаторов через POST /products/validate.
// Каталог возвращает только найденные товары; любой отсутствующий идентификатор
// превращает весь вызов в ошибку — частичные данные каталога не используются.
func (c *Client) ValidateProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	body, err := json.Marshal(validateRequest{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("marshal validate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/products/validate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build validate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("catalog request failed")
		return nil, fmt.Errorf("call catalog: %w: %w", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).Warn("catalog returned non-200")
		return nil, fmt.Errorf("catalog status %d: %w", resp.StatusCode, domain.ErrCatalogUnavailable)
	}

	var payload []productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w: %w", domain.ErrCatalogUnavailable, err)
	}

	resolved := make(map[string]struct{}, len(payload))
	products := make([]domain.Product, 0, len(payload))
	for _, p := range payload {
		resolved[p.ID] = struct{}{}
		products = append(products, domain.Product{ID: p.ID, Name: p.Name, PriceMinor: p.PriceMinor})
	}

	var missing []string
	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		c.logger.WithField("missing", missing).Warn("catalog could not resolve all products")
		return nil, fmt.Errorf("unresolved products %v: %w", missing, domain.ErrProductUnresolved)
	}

	return products, nil
}

var _ domain.CatalogService = (*Client)(nil)
