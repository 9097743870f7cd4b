package restaurant

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"orderflow/internal/db"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	// FindRestaurant loads the restaurant with only the requested products.
	FindRestaurant(ctx context.Context, restaurantID uuid.UUID, productIDs []uuid.UUID) (*Restaurant, error)
	SaveOrderApproval(ctx context.Context, approval *OrderApproval) error
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

func (r *postgresRepository) FindRestaurant(ctx context.Context, restaurantID uuid.UUID, productIDs []uuid.UUID) (*Restaurant, error) {
	query := `
		SELECT r.id, r.name, r.active, p.id, p.name, p.price, p.available
		FROM restaurants r
		JOIN products p ON p.restaurant_id = r.id
		WHERE r.id = $1 AND p.id = ANY($2)`
	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}
	rows, err := r.dbtx.QueryContext(ctx, query, restaurantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("select restaurant: %w", err)
	}
	defer rows.Close()

	var restaurant *Restaurant
	for rows.Next() {
		var p Product
		var id uuid.UUID
		var name string
		var active bool
		if err := rows.Scan(&id, &name, &active, &p.ID, &p.Name, &p.Price, &p.Available); err != nil {
			return nil, fmt.Errorf("scan restaurant product: %w", err)
		}
		if restaurant == nil {
			restaurant = &Restaurant{ID: id, Name: name, Active: active, Products: make(map[uuid.UUID]Product)}
		}
		restaurant.Products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurant products: %w", err)
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}
	return restaurant, nil
}

func (r *postgresRepository) SaveOrderApproval(ctx context.Context, approval *OrderApproval) error {
	query := `
		INSERT INTO order_approvals (id, order_id, restaurant_id, status)
		VALUES ($1, $2, $3, $4)`
	_, err := r.dbtx.ExecContext(ctx, query,
		approval.ID, approval.OrderID, approval.RestaurantID, approval.Status)
	if err != nil {
		return fmt.Errorf("insert order approval: %w", err)
	}
	return nil
}
