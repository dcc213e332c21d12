package commerce

import (
	"context"
	"fmt"
	"strings"
)

// Image is a product image.
type Image struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// Money is a decimal amount as the store reports it.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// Variant is a purchasable product variant.
type Variant struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	AvailableForSale bool   `json:"availableForSale"`
	Price            Money  `json:"price"`
}

// Product is the flattened product shape served to the site.
type Product struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	DescriptionHTML string    `json:"descriptionHtml"`
	Images          []Image   `json:"images"`
	Variants        []Variant `json:"variants"`
}

// Description returns the product description as plain text.
func (p *Product) Description() string { return PlainText(p.DescriptionHTML) }

const productFields = `
    id
    title
    descriptionHtml
    images(first: 10) {
      edges { node { id url altText width height } }
    }
    variants(first: 10) {
      edges {
        node {
          id
          title
          availableForSale
          %s {
            amount
            currencyCode
          }
        }
      }
    }`

var (
	storefrontProductQuery = `query productByHandle($handle: String!) {
  product(handle: $handle) {` + fmt.Sprintf(productFields, "price") + `
  }
}`
	adminProductQuery = `query productByHandle($handle: String!) {
  productByHandle(handle: $handle) {` + fmt.Sprintf(productFields, "price: priceV2") + `
  }
}`
)

type productNode struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DescriptionHTML string `json:"descriptionHtml"`
	Images          struct {
		Edges []struct {
			Node Image `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	Variants struct {
		Edges []struct {
			Node Variant `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

func (n *productNode) flatten() *Product {
	if n == nil {
		return nil
	}
	p := &Product{
		ID:              n.ID,
		Title:           n.Title,
		DescriptionHTML: n.DescriptionHTML,
		Images:          make([]Image, 0, len(n.Images.Edges)),
		Variants:        make([]Variant, 0, len(n.Variants.Edges)),
	}
	for _, e := range n.Images.Edges {
		p.Images = append(p.Images, e.Node)
	}
	for _, e := range n.Variants.Edges {
		p.Variants = append(p.Variants, e.Node)
	}
	return p
}

// ProductByHandle looks a product up through the Storefront API, falling back
// to the Admin API when the Storefront is unconfigured, fails or has no such
// product. It returns nil, nil for an unknown handle.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, nil
	}
	var sfErr error
	if c.cfg.StorefrontToken != "" {
		var data struct {
			Product *productNode `json:"product"`
		}
		sfErr = c.do(ctx, c.storefront(), storefrontProductQuery, map[string]any{"handle": handle}, &data)
		if sfErr == nil && data.Product != nil {
			return data.Product.flatten(), nil
		}
		if sfErr != nil {
			c.log.Warnw("storefront product fetch failed; falling back to admin",
				"handle", handle, "error", sfErr)
		}
	}

	if c.cfg.AdminToken == "" {
		if sfErr != nil {
			return nil, sfErr
		}
		if c.cfg.StorefrontToken == "" {
			return nil, fmt.Errorf("%w: no product API", ErrNotConfigured)
		}
		return nil, nil
	}

	var data struct {
		ProductByHandle *productNode `json:"productByHandle"`
	}
	if err := c.do(ctx, c.admin(), adminProductQuery, map[string]any{"handle": handle}, &data); err != nil {
		return nil, err
	}
	return data.ProductByHandle.flatten(), nil
}
