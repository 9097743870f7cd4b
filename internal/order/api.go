package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orderflow/internal/logger"
	"orderflow/internal/money"
)

// API is the HTTP surface of the order service: create an order, track it
// by tracking id.
type API struct {
	svc Service
}

func NewAPI(svc Service) *API {
	return &API{svc: svc}
}

func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", a.createOrder)
	mux.HandleFunc("GET /orders/{trackingID}", a.trackOrder)
	return mux
}

type createOrderRequest struct {
	CustomerID   string             `json:"customer_id"`
	RestaurantID string             `json:"restaurant_id"`
	Address      addressPayload     `json:"address"`
	Price        money.Money        `json:"price"`
	Items        []orderItemPayload `json:"items"`
}

type addressPayload struct {
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
}

type orderItemPayload struct {
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Price     money.Money `json:"price"`
	SubTotal  money.Money `json:"sub_total"`
}

type createOrderResponse struct {
	OrderID    string `json:"order_id"`
	TrackingID string `json:"tracking_id"`
	Status     string `json:"status"`
}

type trackOrderResponse struct {
	OrderID         string   `json:"order_id"`
	TrackingID      string   `json:"tracking_id"`
	Status          string   `json:"status"`
	FailureMessages []string `json:"failure_messages,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cmd, err := req.toCommand()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := a.svc.CreateOrder(r.Context(), cmd)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID:    o.ID.String(),
		TrackingID: o.TrackingID.String(),
		Status:     string(o.Status),
	})
}

func (a *API) trackOrder(w http.ResponseWriter, r *http.Request) {
	trackingID, err := uuid.Parse(r.PathValue("trackingID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tracking id")
		return
	}

	o, err := a.svc.TrackOrder(r.Context(), trackingID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, trackOrderResponse{
		OrderID:         o.ID.String(),
		TrackingID:      o.TrackingID.String(),
		Status:          string(o.Status),
		FailureMessages: o.FailureMessages,
	})
}

func (r createOrderRequest) toCommand() (CreateOrderCommand, error) {
	customerID, err := uuid.Parse(r.CustomerID)
	if err != nil {
		return CreateOrderCommand{}, errors.New("invalid customer_id")
	}
	restaurantID, err := uuid.Parse(r.RestaurantID)
	if err != nil {
		return CreateOrderCommand{}, errors.New("invalid restaurant_id")
	}
	cmd := CreateOrderCommand{
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		Address: Address{
			Street:     r.Address.Street,
			PostalCode: r.Address.PostalCode,
			City:       r.Address.City,
		},
		Price: r.Price,
	}
	for _, item := range r.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return CreateOrderCommand{}, errors.New("invalid product_id")
		}
		cmd.Items = append(cmd.Items, CreateOrderItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			SubTotal:  item.SubTotal,
		})
	}
	return cmd, nil
}

func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrCustomerNotFound),
		errors.Is(err, ErrRestaurantNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.FromCtx(ctx).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
