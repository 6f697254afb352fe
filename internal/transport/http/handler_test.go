package httpapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/service/catalog"
	"github.com/vladislavdragonenkov/orders/internal/service/orders"
	"github.com/vladislavdragonenkov/orders/internal/service/payment"
	"github.com/vladislavdragonenkov/orders/internal/storage/memory"
	httpapi "github.com/vladislavdragonenkov/orders/internal/transport/http"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger.WithField("component", "test")
}

type testEnv struct {
	router   *gin.Engine
	catalog  *catalog.MockService
	payments *payment.MockService
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	catalogSvc := catalog.NewMockService()
	paymentSvc := payment.NewMockService()
	svc := orders.NewServiceWithoutMetrics(
		memory.NewOrderRepository(), catalogSvc, paymentSvc, "usd", loggerForTests())
	handler := httpapi.NewOrderHandler(svc, loggerForTests())

	return &testEnv{
		router:   httpapi.NewRouter(handler),
		catalog:  catalogSvc,
		payments: paymentSvc,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)
	return recorder
}

func (e *testEnv) createOrder(t *testing.T) string {
	t.Helper()
	recorder := e.do(t, http.MethodPost, "/orders", gin.H{
		"items": []gin.H{{"product_id": "p1", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var resp struct {
		Order struct {
			ID string `json:"id"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp.Order.ID
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv()

	recorder := env.do(t, http.MethodPost, "/orders", gin.H{
		"items": []gin.H{{"product_id": "p1", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

	order := resp["order"].(map[string]any)
	require.Equal(t, "pending", order["status"])
	require.EqualValues(t, 2000, order["total_amount_minor"])
	require.EqualValues(t, 2, order["total_items"])

	items := order["items"].([]any)
	require.Len(t, items, 1)
	require.Equal(t, "Widget", items[0].(map[string]any)["name"])

	session := resp["payment_session"].(map[string]any)
	require.Equal(t, "https://pay.example/sess_mock", session["url"])
	require.NotContains(t, resp, "session_error")
}

func TestCreateOrder_BadRequests(t *testing.T) {
	env := newTestEnv()

	cases := []struct {
		name string
		body any
	}{
		{"empty body", gin.H{}},
		{"empty items", gin.H{"items": []gin.H{}}},
		{"zero quantity", gin.H{"items": []gin.H{{"product_id": "p1", "quantity": 0}}}},
		{"missing product id", gin.H{"items": []gin.H{{"quantity": 1}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := env.do(t, http.MethodPost, "/orders", tc.body)
			require.Equal(t, http.StatusBadRequest, recorder.Code, recorder.Body.String())
		})
	}
}

func TestCreateOrder_UnresolvedProduct(t *testing.T) {
	env := newTestEnv()

	recorder := env.do(t, http.MethodPost, "/orders", gin.H{
		"items": []gin.H{{"product_id": "ghost", "quantity": 1}},
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code, recorder.Body.String())
}

func TestCreateOrder_CatalogDown(t *testing.T) {
	env := newTestEnv()
	env.catalog.Err = domain.ErrCatalogUnavailable

	recorder := env.do(t, http.MethodPost, "/orders", gin.H{
		"items": []gin.H{{"product_id": "p1", "quantity": 1}},
	})
	require.Equal(t, http.StatusBadGateway, recorder.Code, recorder.Body.String())
}

func TestCreateOrder_SessionFailureReported(t *testing.T) {
	env := newTestEnv()
	env.payments.Err = domain.ErrPaymentUnavailable

	recorder := env.do(t, http.MethodPost, "/orders", gin.H{
		"items": []gin.H{{"product_id": "p1", "quantity": 1}},
	})
	// Заказ сохранён, поэтому это успех создания, а не ошибка запроса.
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["session_error"])
	require.NotContains(t, resp, "payment_session")
}

func TestListOrders(t *testing.T) {
	env := newTestEnv()
	for i := 0; i < 12; i++ {
		env.createOrder(t)
	}

	recorder := env.do(t, http.MethodGet, "/orders?page=2&limit=5&status=pending", nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var resp struct {
		Data []json.RawMessage `json:"data"`
		Meta struct {
			Page     int `json:"page"`
			Total    int `json:"total"`
			LastPage int `json:"lastPage"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 5)
	require.Equal(t, 2, resp.Meta.Page)
	require.Equal(t, 12, resp.Meta.Total)
	require.Equal(t, 3, resp.Meta.LastPage)
}

func TestListOrders_BadQuery(t *testing.T) {
	env := newTestEnv()

	for _, path := range []string{
		"/orders?page=abc",
		"/orders?limit=abc",
		"/orders?page=0",
		"/orders?limit=-1",
		"/orders?status=unknown",
	} {
		recorder := env.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusBadRequest, recorder.Code, fmt.Sprintf("path %s: %s", path, recorder.Body.String()))
	}
}

func TestGetOrder(t *testing.T) {
	env := newTestEnv()
	orderID := env.createOrder(t)

	recorder := env.do(t, http.MethodGet, "/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Equal(t, orderID, resp["id"])
	items := resp["items"].([]any)
	require.Equal(t, "Widget", items[0].(map[string]any)["name"])
}

func TestGetOrder_NotFound(t *testing.T) {
	env := newTestEnv()
	recorder := env.do(t, http.MethodGet, "/orders/ghost", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestChangeOrderStatus(t *testing.T) {
	env := newTestEnv()
	orderID := env.createOrder(t)

	recorder := env.do(t, http.MethodPatch, "/orders/"+orderID+"/status", gin.H{"status": "cancelled"})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Equal(t, "cancelled", resp["status"])

	// Запрещённый переход — конфликт.
	recorder = env.do(t, http.MethodPatch, "/orders/"+orderID+"/status", gin.H{"status": "paid"})
	require.Equal(t, http.StatusConflict, recorder.Code, recorder.Body.String())

	recorder = env.do(t, http.MethodPatch, "/orders/"+orderID+"/status", gin.H{"status": "bogus"})
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = env.do(t, http.MethodPatch, "/orders/ghost/status", gin.H{"status": "paid"})
	require.Equal(t, http.StatusNotFound, recorder.Code)
}
