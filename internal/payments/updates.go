package payments

import (
	"fmt"

	"github.com/inkpot-dev/inkwell/internal/models"
)

// ProgressUpdate represents a progress event during a checkout flow.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Checkout phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Checkout phase enumeration
type Phase int

const (
	CreateCharge Phase = iota
	OpenCheckout
	AwaitPayment
	PollStatus
	Settled
)

func (p Phase) String() string {
	switch p {
	case CreateCharge:
		return "create_charge"
	case OpenCheckout:
		return "open_checkout"
	case AwaitPayment:
		return "await_payment"
	case PollStatus:
		return "poll_status"
	case Settled:
		return "settled"
	default:
		return ""
	}
}

func createChargeUpdate(input models.ChargeInput) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateCharge,
		Message: fmt.Sprintf("Creating charge for %d %s...", input.Amount, input.Currency),
	}
}

func openCheckoutUpdate(charge *models.Charge) ProgressUpdate {
	return ProgressUpdate{
		Phase:   OpenCheckout,
		Message: "Opening checkout window...",
		Data:    charge,
	}
}

func awaitPaymentUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   AwaitPayment,
		Message: "Waiting for payment to complete...",
	}
}

func pollStatusUpdate(charge *models.Charge, attempt int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PollStatus,
		Message: fmt.Sprintf("[%d] Charge %s: %s", attempt, charge.ID, charge.State),
		Data:    charge,
	}
}

func settledUpdate(charge *models.Charge) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Settled,
		Message: fmt.Sprintf("✓ Payment committed (%s)", charge.ID),
		Data:    charge,
	}
}

func abortedUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Settled,
		Message: "Checkout window closed before payment completed",
	}
}

// sendProgress delivers an update without blocking; a slow or absent
// consumer never stalls the poll loop.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
