package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/zm-storefront/pkg/jxutil"
)

// Encode serializes items as a JSON array using the field names the
// storefront has always written to local storage.
func Encode(items []LineItem) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, item := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(item.CatalogID)
		e.FieldStart("name")
		e.Str(item.Name)
		e.FieldStart("slug")
		e.Str(item.Key)
		e.FieldStart("price")
		jxutil.Decimal(&e, item.UnitPrice)
		e.FieldStart("discount")
		jxutil.NullDecimal(&e, item.Discount)
		e.FieldStart("imageUrl")
		jxutil.OptStr(&e, item.ImageURL)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// Decode parses a serialized cart. Entries without a slug are dropped,
// duplicate slugs are merged into their first occurrence and quantities
// below one are raised to one.
func Decode(data []byte) ([]LineItem, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, errors.New("expected JSON array")
	}

	var items []LineItem
	index := make(map[string]int)
	if err := d.Arr(func(d *jx.Decoder) error {
		item, err := decodeLineItem(d)
		if err != nil {
			return err
		}
		if item.Key == "" {
			return nil
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if i, ok := index[item.Key]; ok {
			items[i].Quantity += item.Quantity
			return nil
		}
		index[item.Key] = len(items)
		items = append(items, item)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return items, nil
}

func decodeLineItem(d *jx.Decoder) (LineItem, error) {
	item := LineItem{Item: Item{UnitPrice: decimal.Zero}}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			item.CatalogID, err = jxutil.DecodeOptStr(d)
		case "name":
			item.Name, err = jxutil.DecodeOptStr(d)
		case "slug":
			item.Key, err = jxutil.DecodeOptStr(d)
		case "price":
			item.UnitPrice, err = jxutil.DecodeDecimal(d)
		case "discount":
			item.Discount, err = jxutil.DecodeNullDecimal(d)
		case "imageUrl":
			item.ImageURL, err = jxutil.DecodeOptStr(d)
		case "quantity":
			item.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	return item, err
}
