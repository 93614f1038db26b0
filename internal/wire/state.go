package wire

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/kastkar/krushi/internal/domain/shop"
	"github.com/kastkar/krushi/internal/domain/visitor"
)

// EncodeIDs returns ids as a JSON array of numbers.
func EncodeIDs(ids []int64) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, id := range ids {
		e.Int64(id)
	}
	e.ArrEnd()
	return e.Bytes()
}

// DecodeIDs parses a JSON array of ids.
func DecodeIDs(data []byte) ([]int64, error) {
	ids := []int64{}
	if err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		id, err := DecodeInt64(d)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode ids")
	}
	return ids, nil
}

// EncodeSettings returns s as a JSON object.
func EncodeSettings(s shop.Settings) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("showPesticidePrices")
	e.Bool(s.ShowPesticidePrices)
	e.ObjEnd()
	return e.Bytes()
}

// DecodeSettings parses settings; absent fields keep their defaults.
func DecodeSettings(data []byte) (shop.Settings, error) {
	s := shop.DefaultSettings()
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "showPesticidePrices":
			v, err := d.Bool()
			s.ShowPesticidePrices = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return shop.Settings{}, errors.Wrap(err, "decode settings")
	}
	return s, nil
}

// EncodeVisitor writes v as a JSON object.
func EncodeVisitor(e *jx.Encoder, v visitor.Visitor) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(v.ID)
	e.FieldStart("name")
	e.Str(v.Name)
	e.FieldStart("mobile")
	e.Str(v.Mobile)
	e.FieldStart("village")
	e.Str(v.Village)
	e.FieldStart("createdAt")
	e.Str(v.CreatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
}

// EncodeVisitors returns visitors as a JSON array.
func EncodeVisitors(visitors []visitor.Visitor) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, v := range visitors {
		EncodeVisitor(&e, v)
	}
	e.ArrEnd()
	return e.Bytes()
}

// DecodeVisitor reads one visitor object. Unknown fields are skipped.
func DecodeVisitor(d *jx.Decoder) (visitor.Visitor, error) {
	var v visitor.Visitor
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			v.ID, err = optStr(d)
		case "name":
			v.Name, err = optStr(d)
		case "mobile":
			v.Mobile, err = optStr(d)
		case "village":
			v.Village, err = optStr(d)
		case "createdAt":
			var s string
			if s, err = optStr(d); err == nil && s != "" {
				v.CreatedAt, err = time.Parse(time.RFC3339, s)
			}
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	return v, err
}

// DecodeVisitors parses a JSON array of visitors.
func DecodeVisitors(data []byte) ([]visitor.Visitor, error) {
	visitors := []visitor.Visitor{}
	if err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		v, err := DecodeVisitor(d)
		if err != nil {
			return err
		}
		visitors = append(visitors, v)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode visitors")
	}
	return visitors, nil
}
