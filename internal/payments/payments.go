// Package payments implements the checkout popup flow: charge creation,
// the provider-hosted payment window, and status polling until the
// charge settles or the window is abandoned.
//
// Unlike the identity flows, payment errors are never swallowed. A poll
// failure or a terminal non-committed charge surfaces to the caller so
// money-state is never silently wrong.
package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/inkpot-dev/inkwell/internal/browser"
	"github.com/inkpot-dev/inkwell/internal/models"
	"github.com/inkpot-dev/inkwell/internal/shared"
)

const (
	// The provider needs a moment before the charge is queryable, so the
	// first status poll waits noticeably longer than the steady interval.
	defaultInitialDelay = 10 * time.Second
	defaultPollInterval = 2 * time.Second
)

// API is what the checkout flow needs from the platform client.
type API interface {
	CreateCheckout(ctx context.Context, input models.ChargeInput) (*models.Charge, error)
	Checkout(ctx context.Context, id string) (*models.Charge, error)
}

// Result is the outcome of a completed charge flow.
type Result struct {
	Charge  *models.Charge // Final charge record; nil when aborted
	Aborted bool           // User closed the checkout window before paying
}

// Service runs checkout flows against the platform API in a window
// environment.
type Service struct {
	api    API
	env    browser.Environment
	logger *log.Logger

	// Poll cadence, overridable in tests.
	initialDelay time.Duration
	pollInterval time.Duration
}

// NewService creates a payment service.
func NewService(api API, env browser.Environment, logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Service{
		api:          api,
		env:          env,
		logger:       logger,
		initialDelay: defaultInitialDelay,
		pollInterval: defaultPollInterval,
	}
}

// Charge creates a charge, opens the provider checkout in a popup, and
// polls the charge record until it commits, fails, or the user abandons
// the window. Progress events are delivered on progress, best-effort;
// nil is acceptable.
//
// Closing the popup before the charge commits yields Result.Aborted,
// not an error; every other non-committed outcome is an error.
func (s *Service) Charge(ctx context.Context, input models.ChargeInput, progress chan<- ProgressUpdate) (*Result, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrInvalidInput)
	}
	if input.Currency == "" {
		return nil, fmt.Errorf("%w: currency is required", shared.ErrInvalidInput)
	}
	if input.IdempotencyKey == "" {
		input.IdempotencyKey = shared.GenerateID()
	}

	sendProgress(progress, createChargeUpdate(input))

	charge, err := s.api.CreateCheckout(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrChargeFailed, err)
	}
	s.logger.Debug("charge created", "id", charge.ID, "state", charge.State)

	sendProgress(progress, openCheckoutUpdate(charge))

	popup, err := s.env.Open(charge.PaymentURL, browser.PopupFeatures())
	if err != nil {
		if errors.Is(err, shared.ErrPopupBlocked) {
			if nerr := s.env.Navigate(charge.PaymentURL); nerr != nil {
				s.logger.Warn("fallback navigation failed", "error", nerr)
			}
			return nil, fmt.Errorf("%w: continuing by full-page navigation", shared.ErrPopupBlocked)
		}
		return nil, err
	}
	defer popup.Close()

	sendProgress(progress, awaitPaymentUpdate())

	return s.poll(ctx, charge.ID, popup, progress)
}

// poll watches the charge record until a terminal outcome. The first
// check happens after the initial delay, then on the steady interval.
// Each wait races against context cancellation and the popup closing.
func (s *Service) poll(ctx context.Context, id string, popup browser.Window, progress chan<- ProgressUpdate) (*Result, error) {
	wait := time.NewTimer(s.initialDelay)
	defer wait.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-popup.Closed():
			sendProgress(progress, abortedUpdate())
			return &Result{Aborted: true}, nil

		case <-wait.C:
		}

		charge, err := s.api.Checkout(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: polling charge %s: %v", shared.ErrChargeFailed, id, err)
		}

		sendProgress(progress, pollStatusUpdate(charge, attempt))

		switch {
		case charge.State == models.ChargeCommitted:
			sendProgress(progress, settledUpdate(charge))
			return &Result{Charge: charge}, nil

		case charge.State.Terminal():
			return nil, fmt.Errorf("%w: charge %s settled %s", shared.ErrChargeFailed, id, charge.State)
		}

		wait.Reset(s.pollInterval)
	}
}
