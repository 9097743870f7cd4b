package restaurant

import (
	"fmt"

	"github.com/google/uuid"

	"orderflow/internal/message"
	"orderflow/internal/money"
)

// DomainService validates an incoming order against the restaurant's
// catalog. All checks run so the order service gets every rejection
// reason at once.
type DomainService struct{}

func (DomainService) ValidateOrder(r *Restaurant, orderPrice money.Money, products []message.Product) []string {
	var failures []string
	if !r.Active {
		failures = append(failures, fmt.Sprintf("restaurant %s is not accepting orders", r.ID))
	}

	total := money.Zero()
	for _, requested := range products {
		productID, err := uuid.Parse(requested.ID)
		if err != nil {
			failures = append(failures, fmt.Sprintf("invalid product id %q", requested.ID))
			continue
		}
		p, ok := r.Products[productID]
		if !ok {
			failures = append(failures, fmt.Sprintf("product %s is not on the menu of restaurant %s", productID, r.ID))
			continue
		}
		if !p.Available {
			failures = append(failures, fmt.Sprintf("product %s is not available", productID))
		}
		if !requested.Price.Equal(p.Price) {
			failures = append(failures, fmt.Sprintf("product %s price %s does not match menu price %s",
				productID, requested.Price, p.Price))
		}
		total = total.Add(p.Price.Multiply(requested.Quantity))
	}

	if len(failures) == 0 && !orderPrice.Equal(total) {
		failures = append(failures, fmt.Sprintf("order price %s does not match products total %s", orderPrice, total))
	}
	return failures
}
