package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/money"
)

type stubService struct {
	order *Order
	err   error
}

func (s *stubService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*Order, error) {
	return s.order, s.err
}

func (s *stubService) TrackOrder(ctx context.Context, trackingID uuid.UUID) (*Order, error) {
	return s.order, s.err
}

func createOrderBody(customerID, restaurantID, productID uuid.UUID) string {
	return fmt.Sprintf(`{
		"customer_id": %q,
		"restaurant_id": %q,
		"address": {"street": "Main St 1", "postal_code": "10115", "city": "Berlin"},
		"price": "200.00",
		"items": [{"product_id": %q, "quantity": 4, "price": "50.00", "sub_total": "200.00"}]
	}`, customerID, restaurantID, productID)
}

func TestCreateOrderEndpoint(t *testing.T) {
	o := &Order{ID: uuid.New(), TrackingID: uuid.New(), Status: StatusPending, Price: money.MustFromString("200.00")}
	api := NewAPI(&stubService{order: o})

	body := createOrderBody(uuid.New(), uuid.New(), uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp createOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, o.ID.String(), resp.OrderID)
	assert.Equal(t, o.TrackingID.String(), resp.TrackingID)
	assert.Equal(t, "PENDING", resp.Status)
}

func TestCreateOrderEndpoint_BadBody(t *testing.T) {
	api := NewAPI(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderEndpoint_InvalidCustomerID(t *testing.T) {
	api := NewAPI(&stubService{})

	body := `{"customer_id": "nope", "restaurant_id": "also-nope"}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderEndpoint_ValidationFailure(t *testing.T) {
	api := NewAPI(&stubService{err: fmt.Errorf("%w: price mismatch", ErrValidation)})

	body := createOrderBody(uuid.New(), uuid.New(), uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "price mismatch")
}

func TestCreateOrderEndpoint_CustomerMissing(t *testing.T) {
	api := NewAPI(&stubService{err: ErrCustomerNotFound})

	body := createOrderBody(uuid.New(), uuid.New(), uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackOrderEndpoint(t *testing.T) {
	o := &Order{ID: uuid.New(), TrackingID: uuid.New(), Status: StatusCancelled,
		FailureMessages: []string{"restaurant closed"}}
	api := NewAPI(&stubService{order: o})

	req := httptest.NewRequest(http.MethodGet, "/orders/"+o.TrackingID.String(), nil)
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp trackOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Equal(t, []string{"restaurant closed"}, resp.FailureMessages)
}

func TestTrackOrderEndpoint_NotFound(t *testing.T) {
	api := NewAPI(&stubService{err: ErrOrderNotFound})

	req := httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackOrderEndpoint_BadTrackingID(t *testing.T) {
	api := NewAPI(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
