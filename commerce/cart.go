package commerce

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CartLine is one requested cart line. Quantity below 1 means 1.
type CartLine struct {
	VariantID string `json:"merchandiseId"`
	Quantity  int    `json:"quantity"`
}

// Cart is the checkout handoff. ID is empty for a direct cart link.
type Cart struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkoutUrl"`
}

const cartCreateMutation = `mutation cartCreate($lines: [CartLineInput!]!) {
  cartCreate(input: { lines: $lines }) {
    cart { id checkoutUrl }
    userErrors { field message }
  }
}`

// CreateCart creates a Storefront cart holding lines. Without a Storefront
// token it returns a direct cart link for the first line instead.
func (c *Client) CreateCart(ctx context.Context, lines []CartLine) (*Cart, error) {
	if c.cfg.StoreDomain == "" {
		return nil, fmt.Errorf("%w: store domain", ErrNotConfigured)
	}
	if len(lines) == 0 {
		return nil, errors.New("commerce: cart needs at least one line")
	}
	norm := make([]CartLine, len(lines))
	for i, l := range lines {
		if strings.TrimSpace(l.VariantID) == "" {
			return nil, fmt.Errorf("commerce: line %d has no variant", i)
		}
		if l.Quantity < 1 {
			l.Quantity = 1
		}
		norm[i] = l
	}

	if c.cfg.StorefrontToken == "" {
		first := norm[0]
		id := VariantNumericID(first.VariantID)
		if id == "" {
			id = first.VariantID
		}
		return &Cart{CheckoutURL: fmt.Sprintf("https://%s/cart/%s:%d", c.cfg.StoreDomain, id, first.Quantity)}, nil
	}

	var data struct {
		CartCreate struct {
			Cart       *Cart       `json:"cart"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"cartCreate"`
	}
	if err := c.do(ctx, c.storefront(), cartCreateMutation, map[string]any{"lines": norm}, &data); err != nil {
		return nil, err
	}
	if err := userErrors("cartCreate", data.CartCreate.UserErrors); err != nil {
		return nil, err
	}
	if data.CartCreate.Cart == nil || data.CartCreate.Cart.CheckoutURL == "" {
		return nil, errors.New("commerce: no checkout URL returned")
	}
	return data.CartCreate.Cart, nil
}

// VariantNumericID returns the last path segment of gid, which is the
// numeric id for well-formed variant IDs such as
// gid://shopify/ProductVariant/123. The segment is not checked for digits;
// it is "" only when gid is empty or ends in a slash.
func VariantNumericID(gid string) string {
	if gid == "" {
		return ""
	}
	return gid[strings.LastIndex(gid, "/")+1:]
}
