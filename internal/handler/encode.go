package handler

import (
	"github.com/go-faster/jx"

	"github.com/kastkar/krushi/internal/domain/advisory"
	"github.com/kastkar/krushi/internal/domain/cart"
	"github.com/kastkar/krushi/internal/domain/catalog"
	"github.com/kastkar/krushi/internal/domain/shop"
	"github.com/kastkar/krushi/internal/domain/visitor"
	"github.com/kastkar/krushi/internal/wire"
)

func encodeListing(e *jx.Encoder, l shop.Listing) {
	e.ObjStart()
	wire.ProductFields(e, l.Product, l.PriceVisible)
	e.FieldStart("priceVisible")
	e.Bool(l.PriceVisible)
	e.FieldStart("rating")
	e.Str(l.Rating)
	e.FieldStart("stock")
	encodeStock(e, l.Stock)
	e.ObjEnd()
}

func encodeListings(e *jx.Encoder, listings []shop.Listing) {
	e.ArrStart()
	for _, l := range listings {
		encodeListing(e, l)
	}
	e.ArrEnd()
}

func encodeStock(e *jx.Encoder, s catalog.StockStatus) {
	e.ObjStart()
	e.FieldStart("level")
	e.Str(string(s.Level))
	e.FieldStart("label")
	e.Str(s.Label)
	e.FieldStart("fill")
	e.Float64(s.Fill)
	e.ObjEnd()
}

func encodeItem(e *jx.Encoder, it cart.Item) {
	e.ObjStart()
	e.FieldStart("product")
	wire.EncodeProduct(e, it.Product)
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.FieldStart("subtotal")
	wire.EncodeDecimal(e, it.Subtotal())
	e.ObjEnd()
}

func encodeCart(e *jx.Encoder, v shop.CartView) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range v.Items {
		encodeItem(e, it)
	}
	e.ArrEnd()
	e.FieldStart("total")
	wire.EncodeDecimal(e, v.Total)
	e.FieldStart("count")
	e.Int(v.Count)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *shop.Order) {
	e.ObjStart()
	e.FieldStart("customer")
	e.ObjStart()
	e.FieldStart("name")
	e.Str(o.Customer.Name)
	e.FieldStart("mobile")
	e.Str(o.Customer.Mobile)
	e.FieldStart("address")
	e.Str(o.Customer.Address)
	e.ObjEnd()
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		encodeItem(e, it)
	}
	e.ArrEnd()
	e.FieldStart("total")
	wire.EncodeDecimal(e, o.Total)
	e.FieldStart("message")
	e.Str(o.Message)
	e.FieldStart("link")
	e.Str(o.Link)
	e.ObjEnd()
}

func encodeDay(e *jx.Encoder, d advisory.Day) {
	e.ObjStart()
	e.FieldStart("date")
	e.Str(d.Date.Format("2006-01-02"))
	e.FieldStart("label")
	e.Str(d.Label)
	e.FieldStart("condition")
	e.Str(string(d.Condition))
	e.FieldStart("temp")
	e.Int(d.Temp)
	e.FieldStart("rainChance")
	e.Int(d.RainChance)
	e.FieldStart("windSpeed")
	e.Int(d.WindSpeed)
	e.FieldStart("humidity")
	e.Int(d.Humidity)
	e.FieldStart("spraySafe")
	e.Bool(d.SpraySafe())
	e.ObjEnd()
}

func encodeAdvice(e *jx.Encoder, a advisory.Advice) {
	e.ObjStart()
	e.FieldStart("stage")
	e.Str(string(a.Stage))
	e.FieldStart("level")
	e.Str(string(a.Level))
	e.FieldStart("message")
	e.Str(a.Message)
	e.ObjEnd()
}

func encodeVisitors(e *jx.Encoder, visitors []visitor.Visitor) {
	e.ArrStart()
	for _, v := range visitors {
		wire.EncodeVisitor(e, v)
	}
	e.ArrEnd()
}
