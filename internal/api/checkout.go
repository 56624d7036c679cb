package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/inkpot-dev/inkwell/internal/models"
	"github.com/inkpot-dev/inkwell/internal/shared"
)

// CreateCheckout creates a charge record and returns it together with the
// provider-hosted payment URL the checkout popup should be opened at.
func (c *Client) CreateCheckout(ctx context.Context, input models.ChargeInput) (*models.Charge, error) {
	var charge models.Charge
	if err := c.do(ctx, "POST", c.apiBase+"/v1/checkout", input, &charge); err != nil {
		return nil, err
	}

	if charge.ID == "" || charge.PaymentURL == "" {
		return nil, fmt.Errorf("%w: incomplete checkout record", shared.ErrAPIRequest)
	}

	return &charge, nil
}

// Checkout fetches the current state of a charge record.
func (c *Client) Checkout(ctx context.Context, id string) (*models.Charge, error) {
	var charge models.Charge
	endpoint := fmt.Sprintf("%s/v1/checkout?id=%s", c.apiBase, url.QueryEscape(id))
	if err := c.do(ctx, "GET", endpoint, nil, &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}
