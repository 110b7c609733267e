package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/zm-storefront/internal/domain/order"
	"github.com/xenking/zm-storefront/pkg/jxutil"
)

const maxOrderBody = 64 << 10

// PlaceOrder re-prices the submitted cart against the catalog and returns the
// line items, totals and the messaging deep link.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxOrderBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	req, err := decodeOrderRequest(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result, err := h.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		status, msg, ok := mapOrderError(err)
		if !ok {
			writeInternalError(w, r, "Place order failed", err)
			return
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		e.ArrStart()
		for _, item := range result.Items {
			price := item.Pricing()
			e.ObjStart()
			e.FieldStart("slug")
			e.Str(item.Key)
			e.FieldStart("name")
			e.Str(item.Name)
			e.FieldStart("quantity")
			e.Int(item.Quantity)
			e.FieldStart("unitPrice")
			jxutil.Decimal(e, item.UnitPrice)
			e.FieldStart("discountedPrice")
			jxutil.Decimal(e, price.Discounted)
			e.FieldStart("subtotal")
			jxutil.Decimal(e, item.Subtotal())
			e.FieldStart("imageUrl")
			jxutil.OptStr(e, h.imageURL(item.ImageURL))
			e.ObjEnd()
		}
		e.ArrEnd()
		e.FieldStart("totalQuantity")
		e.Int(result.Totals.Quantity)
		e.FieldStart("totalPrice")
		jxutil.Decimal(e, result.Totals.Price)
		e.FieldStart("text")
		e.Str(result.Text)
		e.FieldStart("link")
		e.Str(result.Link)
		e.ObjEnd()
	})
}

// decodeOrderRequest reads {"items":[{"slug":"...","quantity":N}]}.
func decodeOrderRequest(body []byte) (order.PlaceOrderRequest, error) {
	var req order.PlaceOrderRequest
	err := jx.DecodeBytes(body).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "items" {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var item order.OrderItem
			err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				var err error
				switch string(key) {
				case "slug":
					item.Slug, err = d.Str()
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
			if err != nil {
				return err
			}
			req.Items = append(req.Items, item)
			return nil
		})
	})
	if err != nil {
		return req, errors.Wrap(err, "invalid order request")
	}
	return req, nil
}

// mapOrderError converts domain errors to HTTP statuses. ok is false for
// errors that are not the client's fault.
func mapOrderError(err error) (status int, msg string, ok bool) {
	if errors.Is(err, order.ErrEmptyItems) {
		return http.StatusBadRequest, err.Error(), true
	}

	var iqErr *order.InvalidQuantityError
	if errors.As(err, &iqErr) {
		return http.StatusUnprocessableEntity, iqErr.Error(), true
	}

	var pnfErr *order.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		return http.StatusUnprocessableEntity, pnfErr.Error(), true
	}

	return 0, "", false
}
