// Package wire encodes and decodes shop records as JSON with jx. The same
// shapes are used for stored snapshots and HTTP bodies.
package wire

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/kastkar/krushi/internal/domain/catalog"
)

// EncodeProduct writes p as a JSON object. inStock is emitted for readers
// that expect it; it is derived from quantity.
func EncodeProduct(e *jx.Encoder, p catalog.Product) {
	e.ObjStart()
	ProductFields(e, p, true)
	e.ObjEnd()
}

// ProductFields writes the fields of p into an already open object. With
// withPrice false the price field is omitted.
func ProductFields(e *jx.Encoder, p catalog.Product, withPrice bool) {
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("category")
	e.Str(string(p.Category))
	if withPrice {
		e.FieldStart("price")
		EncodeDecimal(e, p.Price)
	}
	if p.Company != "" {
		e.FieldStart("company")
		e.Str(p.Company)
	}
	e.FieldStart("quantity")
	e.Int(p.Quantity)
	e.FieldStart("inStock")
	e.Bool(p.InStock())
	e.FieldStart("image")
	e.Str(p.Image)
	e.FieldStart("images")
	e.ArrStart()
	for _, img := range p.Images {
		e.Str(img)
	}
	e.ArrEnd()
	e.FieldStart("description")
	e.Str(p.Description)
	if p.SuitableSoil != "" {
		e.FieldStart("suitableSoil")
		e.Str(p.SuitableSoil)
	}
	e.FieldStart("ratings")
	e.ArrStart()
	for _, r := range p.Ratings {
		e.Int(r)
	}
	e.ArrEnd()
}

// EncodeProducts returns products as a JSON array.
func EncodeProducts(products []catalog.Product) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, p := range products {
		EncodeProduct(&e, p)
	}
	e.ArrEnd()
	return e.Bytes()
}

// DecodeProducts parses a JSON array of products.
func DecodeProducts(data []byte) ([]catalog.Product, error) {
	d := jx.DecodeBytes(data)
	products := []catalog.Product{}
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := DecodeProduct(d)
		if err != nil {
			return err
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

// DecodeProduct reads one product object. A missing quantity becomes
// catalog.DefaultQuantity; a stored inStock flag is ignored.
func DecodeProduct(d *jx.Decoder) (catalog.Product, error) {
	p := catalog.Product{Quantity: catalog.DefaultQuantity}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = DecodeInt64(d)
		case "name":
			p.Name, err = d.Str()
		case "category":
			var s string
			s, err = d.Str()
			p.Category = catalog.Category(s)
		case "price":
			p.Price, err = DecodeDecimal(d)
		case "company":
			p.Company, err = optStr(d)
		case "quantity":
			if d.Next() == jx.Null {
				return d.Null()
			}
			p.Quantity, err = d.Int()
		case "image":
			p.Image, err = optStr(d)
		case "images":
			p.Images, err = decodeStrings(d)
		case "description":
			p.Description, err = optStr(d)
		case "suitableSoil":
			p.SuitableSoil, err = optStr(d)
		case "ratings":
			p.Ratings, err = decodeInts(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

// DecodeProductPatch reads an owner edit. Absent or null fields stay nil so
// the stored values are kept; id, inStock and ratings are ignored.
func DecodeProductPatch(d *jx.Decoder) (catalog.Patch, error) {
	var p catalog.Patch
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch key {
		case "name":
			p.Name, err = strPtr(d)
		case "category":
			p.Category, err = strPtr(d)
		case "price":
			var v decimal.Decimal
			if v, err = DecodeDecimal(d); err == nil {
				p.Price = &v
			}
		case "company":
			p.Company, err = strPtr(d)
		case "quantity":
			var v int
			if v, err = d.Int(); err == nil {
				p.Quantity = &v
			}
		case "image":
			p.Image, err = strPtr(d)
		case "images":
			var v []string
			if v, err = decodeStrings(d); err == nil {
				p.Images = &v
			}
		case "description":
			p.Description, err = strPtr(d)
		case "suitableSoil":
			p.SuitableSoil, err = strPtr(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return catalog.Patch{}, err
	}
	return p, nil
}

// EncodeDecimal writes v as a bare JSON number.
func EncodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

// DecodeDecimal accepts a JSON number or a numeric string.
func DecodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	}
}

// DecodeInt64 accepts a JSON integer or a string holding one. Fractions and
// values outside the int64 range are rejected.
func DecodeInt64(d *jx.Decoder) (int64, error) {
	var raw string
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		raw = strings.TrimSpace(s)
	} else {
		n, err := d.Num()
		if err != nil {
			return 0, err
		}
		raw = n.String()
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Errorf("%q is not an integer id", raw)
	}
	return v, nil
}

func optStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func strPtr(d *jx.Decoder) (*string, error) {
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	out := []string{}
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func decodeInts(d *jx.Decoder) ([]int, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	out := []int{}
	err := d.Arr(func(d *jx.Decoder) error {
		v, err := d.Int()
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}
