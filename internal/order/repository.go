package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"orderflow/internal/db"
	"orderflow/internal/money"
)

// RestaurantProduct is one row of the locally replicated restaurant
// catalog the order service validates against.
type RestaurantProduct struct {
	RestaurantID     uuid.UUID
	RestaurantActive bool
	ProductID        uuid.UUID
	Name             string
	Price            money.Money
}

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByTrackingID(ctx context.Context, trackingID uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, o *Order) error
	CustomerExists(ctx context.Context, customerID uuid.UUID) (bool, error)
	FindRestaurantProducts(ctx context.Context, restaurantID uuid.UUID, productIDs []uuid.UUID) ([]RestaurantProduct, error)
}

type postgresRepository struct {
	dbtx db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &postgresRepository{dbtx: dbtx}
}

func (r *postgresRepository) WithTx(tx *sql.Tx) Repository {
	return &postgresRepository{dbtx: tx}
}

func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (id, customer_id, restaurant_id, tracking_id, price, status, failure_messages)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.dbtx.ExecContext(ctx, query,
		o.ID, o.CustomerID, o.RestaurantID, o.TrackingID, o.Price, o.Status, pq.Array(o.FailureMessages))
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	addressQuery := `
		INSERT INTO order_address (id, order_id, street, postal_code, city)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.dbtx.ExecContext(ctx, addressQuery,
		o.Address.ID, o.ID, o.Address.Street, o.Address.PostalCode, o.Address.City); err != nil {
		return fmt.Errorf("insert order address: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price, sub_total)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, item := range o.Items {
		if _, err := r.dbtx.ExecContext(ctx, itemQuery,
			item.ID, o.ID, item.ProductID, item.Quantity, item.Price, item.SubTotal); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOrder(ctx, "id", id)
}

func (r *postgresRepository) GetByTrackingID(ctx context.Context, trackingID uuid.UUID) (*Order, error) {
	return r.getOrder(ctx, "tracking_id", trackingID)
}

func (r *postgresRepository) getOrder(ctx context.Context, column string, key uuid.UUID) (*Order, error) {
	query := fmt.Sprintf(`
		SELECT id, customer_id, restaurant_id, tracking_id, price, status, failure_messages
		FROM orders
		WHERE %s = $1`, column)

	var o Order
	err := r.dbtx.QueryRowContext(ctx, query, key).Scan(
		&o.ID, &o.CustomerID, &o.RestaurantID, &o.TrackingID, &o.Price, &o.Status,
		pq.Array(&o.FailureMessages))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}

	itemQuery := `
		SELECT id, product_id, quantity, price, sub_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`
	rows, err := r.dbtx.QueryContext(ctx, itemQuery, o.ID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.Price, &item.SubTotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return &o, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, o *Order) error {
	query := `
		UPDATE orders
		SET status = $1, failure_messages = $2
		WHERE id = $3`
	result, err := r.dbtx.ExecContext(ctx, query, o.Status, pq.Array(o.FailureMessages), o.ID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepository) CustomerExists(ctx context.Context, customerID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`
	var exists bool
	if err := r.dbtx.QueryRowContext(ctx, query, customerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("select customer: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) FindRestaurantProducts(ctx context.Context, restaurantID uuid.UUID, productIDs []uuid.UUID) ([]RestaurantProduct, error) {
	query := `
		SELECT restaurant_id, restaurant_active, product_id, product_name, product_price
		FROM restaurant_products
		WHERE restaurant_id = $1 AND product_id = ANY($2)`
	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}
	rows, err := r.dbtx.QueryContext(ctx, query, restaurantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("select restaurant products: %w", err)
	}
	defer rows.Close()

	var products []RestaurantProduct
	for rows.Next() {
		var p RestaurantProduct
		if err := rows.Scan(&p.RestaurantID, &p.RestaurantActive, &p.ProductID, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("scan restaurant product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurant products: %w", err)
	}
	return products, nil
}
