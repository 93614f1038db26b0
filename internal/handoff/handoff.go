// Package handoff delivers serialized orders to the shop: a WhatsApp deep
// link for the customer and an optional email copy for the owner.
package handoff

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kastkar/krushi/internal/domain/shop"
)

const whatsAppBase = "https://wa.me/"

// Notifier sends an order copy to the owner.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

var _ shop.Dispatcher = (*Dispatcher)(nil)

// Dispatcher implements shop.Dispatcher.
type Dispatcher struct {
	contact  string
	notifier Notifier
}

// NewDispatcher returns a Dispatcher linking orders to the WhatsApp number
// contact. notifier may be nil.
func NewDispatcher(contact string, notifier Notifier) *Dispatcher {
	return &Dispatcher{contact: contact, notifier: notifier}
}

// Dispatch sets the order link and sends the owner copy. A failed email is
// logged; the customer still gets the link.
func (d *Dispatcher) Dispatch(ctx context.Context, o *shop.Order) error {
	o.Link = WhatsAppLink(d.contact, o.Message)
	if d.notifier == nil {
		return nil
	}
	if err := d.notifier.Notify(ctx, "New order from "+o.Customer.Name, o.Message); err != nil {
		zctx.From(ctx).Warn("Order email failed",
			zap.String("customer", o.Customer.Name),
			zap.Error(err),
		)
	}
	return nil
}

// WhatsAppLink returns the click-to-chat URL carrying message.
func WhatsAppLink(contact, message string) string {
	return whatsAppBase + contact + "?text=" + EncodeURIComponent(message)
}

var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent escapes s the way browsers escape a URI component:
// spaces become %20 and !'()* stay literal.
func EncodeURIComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
