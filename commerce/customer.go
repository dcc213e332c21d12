package commerce

import (
	"context"
	"errors"
	"regexp"
	"time"
)

// DefaultNewsletterTag is applied when Subscribe is given no tag.
const DefaultNewsletterTag = "newsletter"

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ErrInvalidEmail is returned by Subscribe for addresses that do not look
// like email.
var ErrInvalidEmail = errors.New("invalid email")

// ValidEmail applies the loose shape check used for newsletter signups.
func ValidEmail(email string) bool { return emailPattern.MatchString(email) }

const (
	customerSetMutation = `mutation upsertCustomer($input: CustomerSetInput!, $ident: CustomerSetIdentifiers) {
  customerSet(input: $input, identifier: $ident) {
    customer { id }
    userErrors { field message }
  }
}`
	consentMutation = `mutation updateConsent($input: CustomerEmailMarketingConsentUpdateInput!) {
  customerEmailMarketingConsentUpdate(input: $input) {
    customer { id }
    userErrors { field message }
  }
}`
	tagsAddMutation = `mutation tagsAdd($id: ID!, $tags: [String!]!) {
  tagsAdd(id: $id, tags: $tags) {
    userErrors { message }
  }
}`
)

type customerPayload struct {
	Customer *struct {
		ID string `json:"id"`
	} `json:"customer"`
	UserErrors []UserError `json:"userErrors"`
}

// Subscribe upserts a customer by email, records single opt-in marketing
// consent and tags them. The customer's email is never read back.
func (c *Client) Subscribe(ctx context.Context, email, tag string) error {
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}
	if tag == "" {
		tag = DefaultNewsletterTag
	}
	admin := c.admin()

	var up struct {
		CustomerSet customerPayload `json:"customerSet"`
	}
	vars := map[string]any{
		"ident": map[string]any{"email": email},
		"input": map[string]any{"email": email},
	}
	if err := c.do(ctx, admin, customerSetMutation, vars, &up); err != nil {
		return err
	}
	if err := userErrors("customerSet", up.CustomerSet.UserErrors); err != nil {
		return err
	}
	if up.CustomerSet.Customer == nil || up.CustomerSet.Customer.ID == "" {
		return errors.New("commerce: no customer id returned")
	}
	id := up.CustomerSet.Customer.ID

	var upd struct {
		Consent customerPayload `json:"customerEmailMarketingConsentUpdate"`
	}
	vars = map[string]any{
		"input": map[string]any{
			"customerId": id,
			"emailMarketingConsent": map[string]any{
				"marketingState":      "SUBSCRIBED",
				"marketingOptInLevel": "SINGLE_OPT_IN",
				"consentUpdatedAt":    c.now().UTC().Format(time.RFC3339),
			},
		},
	}
	if err := c.do(ctx, admin, consentMutation, vars, &upd); err != nil {
		return err
	}
	if err := userErrors("customerEmailMarketingConsentUpdate", upd.Consent.UserErrors); err != nil {
		return err
	}

	var tags struct {
		TagsAdd struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"tagsAdd"`
	}
	if err := c.do(ctx, admin, tagsAddMutation, map[string]any{"id": id, "tags": []string{tag}}, &tags); err != nil {
		return err
	}
	if len(tags.TagsAdd.UserErrors) > 0 {
		c.log.Warnw("tagging subscriber failed", "customer", id, "tag", tag,
			"error", userErrors("tagsAdd", tags.TagsAdd.UserErrors))
	}
	return nil
}
