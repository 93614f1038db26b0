package cart

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/kastkar/krushi/internal/domain/catalog"
)

// ErrEmptyCart is returned when checking out with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// Customer is the delivery contact entered at checkout.
type Customer struct {
	Name    string `json:"name" validate:"required"`
	Mobile  string `json:"mobile" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// Validate trims the fields in place and reports the first missing one.
func (c *Customer) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Mobile = strings.TrimSpace(c.Mobile)
	c.Address = strings.TrimSpace(c.Address)
	return catalog.ValidateStruct(c)
}

// SerializeOrder renders the checkout message sent to the shop.
func SerializeOrder(customer Customer, items []Item) (string, error) {
	if err := customer.Validate(); err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", ErrEmptyCart
	}

	var b strings.Builder
	b.WriteString("*New Order from Kastkar App*\n\n")
	b.WriteString("*Customer:* " + customer.Name + "\n")
	b.WriteString("*Mobile:* " + customer.Mobile + "\n")
	b.WriteString("*Address:* " + customer.Address + "\n\n")
	b.WriteString("*Order Details:*\n")
	for _, it := range items {
		b.WriteString("- " + it.Product.Name + " x " + strconv.Itoa(it.Quantity) + " = ₹" + it.Subtotal().String() + "\n")
	}
	b.WriteString("\n*Grand Total: ₹" + Total(items).String() + "*")
	return b.String(), nil
}
