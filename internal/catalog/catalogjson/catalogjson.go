// Package catalogjson encodes and decodes catalog records in the content
// API's JSON shape. Loosely typed upstream values are coerced on the way in:
// nulls become zero values and unknown fields are skipped.
package catalogjson

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/zm-storefront/internal/domain/catalog"
	"github.com/xenking/zm-storefront/pkg/jxutil"
)

// DecodeCategory reads a category object. A null value yields nil.
func DecodeCategory(d *jx.Decoder) (*catalog.Category, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var c catalog.Category
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			c.ID, err = jxutil.DecodeOptStr(d)
		case "name":
			c.Name, err = jxutil.DecodeOptStr(d)
		case "slug":
			c.Slug, err = jxutil.DecodeOptStr(d)
		case "description":
			c.Description, err = jxutil.DecodeOptStr(d)
		case "thumbnail":
			c.ThumbnailURL, err = decodeAssetURL(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "category field %q", key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DecodeCategories reads an array of categories, skipping null entries.
func DecodeCategories(d *jx.Decoder) ([]catalog.Category, error) {
	out := []catalog.Category{}
	if d.Next() == jx.Null {
		return out, d.Null()
	}
	err := d.Arr(func(d *jx.Decoder) error {
		c, err := DecodeCategory(d)
		if err != nil {
			return err
		}
		if c != nil {
			out = append(out, *c)
		}
		return nil
	})
	return out, err
}

// DecodeProduct reads a product object. A null value yields nil.
func DecodeProduct(d *jx.Decoder) (*catalog.Product, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	p := catalog.Product{Price: decimal.Zero}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			p.ID, err = jxutil.DecodeOptStr(d)
		case "name":
			p.Name, err = jxutil.DecodeOptStr(d)
		case "slug":
			p.Slug, err = jxutil.DecodeOptStr(d)
		case "price":
			p.Price, err = jxutil.DecodeDecimal(d)
		case "discount":
			p.Discount, err = jxutil.DecodeNullDecimal(d)
		case "stockstatus":
			p.InStock, err = jxutil.DecodeOptBool(d)
		case "description":
			p.Description, err = jxutil.DecodeOptStr(d)
		case "category":
			p.Category, err = decodeCategoryRef(d)
		case "images":
			p.Images, err = decodeImages(d)
		case "featured":
			p.Featured, err = jxutil.DecodeOptBool(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "product field %q", key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DecodeProducts reads an array of products, skipping null entries.
func DecodeProducts(d *jx.Decoder) ([]catalog.Product, error) {
	out := []catalog.Product{}
	if d.Next() == jx.Null {
		return out, d.Null()
	}
	err := d.Arr(func(d *jx.Decoder) error {
		p, err := DecodeProduct(d)
		if err != nil {
			return err
		}
		if p != nil {
			out = append(out, *p)
		}
		return nil
	})
	return out, err
}

// DecodeSlugs reads an array of {"slug": ...} objects.
func DecodeSlugs(d *jx.Decoder) ([]string, error) {
	out := []string{}
	if d.Next() == jx.Null {
		return out, d.Null()
	}
	err := d.Arr(func(d *jx.Decoder) error {
		return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			if string(key) != "slug" {
				return d.Skip()
			}
			s, err := jxutil.DecodeOptStr(d)
			if err != nil {
				return err
			}
			if s != "" {
				out = append(out, s)
			}
			return nil
		})
	})
	return out, err
}

func decodeCategoryRef(d *jx.Decoder) (*catalog.CategoryRef, error) {
	c, err := DecodeCategory(d)
	if err != nil || c == nil {
		return nil, err
	}
	return &catalog.CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug}, nil
}

func decodeImages(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var urls []string
	err := d.Arr(func(d *jx.Decoder) error {
		u, err := decodeAssetURL(d)
		if err != nil {
			return err
		}
		if u != "" {
			urls = append(urls, u)
		}
		return nil
	})
	return urls, err
}

// decodeAssetURL reads an upload object ({"url": ...}) or a bare URL string.
func decodeAssetURL(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.Null:
		return "", d.Null()
	case jx.String:
		return d.Str()
	}
	var url string
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "url" {
			return d.Skip()
		}
		var err error
		url, err = jxutil.DecodeOptStr(d)
		return err
	})
	return url, err
}

// EncodeCategory writes c in the content API shape.
func EncodeCategory(e *jx.Encoder, c catalog.Category) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("slug")
	e.Str(c.Slug)
	e.FieldStart("description")
	jxutil.OptStr(e, c.Description)
	e.FieldStart("thumbnail")
	encodeAsset(e, c.ThumbnailURL)
	e.ObjEnd()
}

// EncodeProductFields writes the fields of p into an already opened object,
// so callers can append their own fields.
func EncodeProductFields(e *jx.Encoder, p catalog.Product) {
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("slug")
	e.Str(p.Slug)
	e.FieldStart("price")
	jxutil.Decimal(e, p.Price)
	e.FieldStart("discount")
	jxutil.NullDecimal(e, p.Discount)
	e.FieldStart("stockstatus")
	e.Bool(p.InStock)
	e.FieldStart("description")
	jxutil.OptStr(e, p.Description)
	e.FieldStart("category")
	if p.Category != nil {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(p.Category.ID)
		e.FieldStart("name")
		e.Str(p.Category.Name)
		e.FieldStart("slug")
		e.Str(p.Category.Slug)
		e.ObjEnd()
	} else {
		e.Null()
	}
	e.FieldStart("images")
	e.ArrStart()
	for _, u := range p.Images {
		encodeAsset(e, u)
	}
	e.ArrEnd()
	e.FieldStart("featured")
	e.Bool(p.Featured)
}

// EncodeProduct writes p as a complete object.
func EncodeProduct(e *jx.Encoder, p catalog.Product) {
	e.ObjStart()
	EncodeProductFields(e, p)
	e.ObjEnd()
}

func encodeAsset(e *jx.Encoder, url string) {
	if url == "" {
		e.Null()
		return
	}
	e.ObjStart()
	e.FieldStart("url")
	e.Str(url)
	e.ObjEnd()
}

// Export is a full catalog dump: {"categories": [...], "products": [...]}.
type Export struct {
	Categories []catalog.Category
	Products   []catalog.Product
}

// DecodeExport reads a catalog dump. Missing sections decode as empty.
func DecodeExport(d *jx.Decoder) (Export, error) {
	e := Export{Categories: []catalog.Category{}, Products: []catalog.Product{}}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "categories", "allCategories":
			e.Categories, err = DecodeCategories(d)
		case "products", "allProducts":
			e.Products, err = DecodeProducts(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "export field %q", key)
		}
		return nil
	})
	return e, err
}
