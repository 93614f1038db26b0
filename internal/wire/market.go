package wire

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/kastkar/krushi/internal/domain/market"
)

// EncodeRate writes r as a JSON object, including its display direction.
func EncodeRate(e *jx.Encoder, r market.Rate) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(r.ID)
	e.FieldStart("date")
	e.Str(r.Date)
	e.FieldStart("crop")
	e.Str(r.Crop)
	e.FieldStart("market")
	e.Str(r.Market)
	e.FieldStart("price")
	e.Str(r.Price)
	e.FieldStart("trend")
	e.Str(r.Trend)
	e.FieldStart("direction")
	e.Str(string(r.Direction()))
	e.ObjEnd()
}

// EncodeRates returns rates as a JSON array.
func EncodeRates(rates []market.Rate) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, r := range rates {
		EncodeRate(&e, r)
	}
	e.ArrEnd()
	return e.Bytes()
}

// DecodeRate reads one rate object. The derived direction and unknown
// fields are skipped.
func DecodeRate(d *jx.Decoder) (market.Rate, error) {
	var r market.Rate
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			r.ID, err = optStr(d)
		case "date":
			r.Date, err = optStr(d)
		case "crop":
			r.Crop, err = optStr(d)
		case "market":
			r.Market, err = optStr(d)
		case "price":
			r.Price, err = optStr(d)
		case "trend":
			r.Trend, err = optStr(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	return r, err
}

// DecodeRates parses a JSON array of rates.
func DecodeRates(data []byte) ([]market.Rate, error) {
	rates := []market.Rate{}
	if err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		r, err := DecodeRate(d)
		if err != nil {
			return err
		}
		rates = append(rates, r)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode market rates")
	}
	return rates, nil
}
