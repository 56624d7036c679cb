package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/inkpot-dev/inkwell/internal/models"
	"github.com/inkpot-dev/inkwell/internal/payments"
	"github.com/inkpot-dev/inkwell/internal/shared"
	"github.com/inkpot-dev/inkwell/internal/ui"
	"github.com/urfave/cli/v3"
)

// Charge creates a charge and drives the checkout popup until the
// payment settles or is abandoned.
func (r *Runner) Charge(ctx context.Context, cmd *cli.Command) error {
	input := models.ChargeInput{
		Amount:   int64(cmd.Int("amount")),
		Currency: cmd.String("currency"),
	}

	if err := r.ensureEnv(); err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}

	state := r.bootstrap(ctx)
	if !state.Authenticated() {
		return fmt.Errorf("%w: run 'inkwell auth login' before charging", shared.ErrNotAuthenticated)
	}

	if cmd.Bool("plain") {
		return r.chargePlain(ctx, input)
	}

	model := ui.NewFlowModel(ctx, r.payments, input)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("checkout display failed: %w", err)
	}

	result, err := model.Result()
	if err != nil {
		return err
	}

	return r.reportResult(result)
}

// chargePlain runs the flow without the interactive display, printing
// each progress message as a line.
func (r *Runner) chargePlain(ctx context.Context, input models.ChargeInput) error {
	progress := make(chan payments.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.payments.Charge(ctx, input, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}
	return r.reportResult(result)
}

func (r *Runner) reportResult(result *payments.Result) error {
	if result == nil {
		return fmt.Errorf("%w: no result", shared.ErrChargeFailed)
	}

	if result.Aborted {
		return r.writePlain("Checkout abandoned before payment completed\n")
	}

	r.writePlain("✓ Payment complete\n")
	r.writePlain("Charge: %s\n", result.Charge.ID)
	r.writePlain("Amount: %d %s\n", result.Charge.Amount, result.Charge.Currency)
	return nil
}
