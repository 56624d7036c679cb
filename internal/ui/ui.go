package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/inkpot-dev/inkwell/internal/models"
	"github.com/inkpot-dev/inkwell/internal/payments"
)

// ViewState represents the current view in the checkout TUI.
type ViewState int

const (
	RunningView ViewState = iota
	ResultView
)

// FlowModel drives the terminal display of a checkout flow: a spinner
// with the latest progress message while the payment window is open, and
// a result screen once the charge settles.
type FlowModel struct {
	ctx     context.Context
	cancel  context.CancelFunc
	view    ViewState
	service *payments.Service
	input   models.ChargeInput

	spinner      spinner.Model
	progressChan chan payments.ProgressUpdate
	doneChan     chan chargeCompleteMsg
	progress     payments.ProgressUpdate
	result       *payments.Result
	err          error
}

type progressUpdateMsg payments.ProgressUpdate

type chargeCompleteMsg struct {
	result *payments.Result
	err    error
}

// NewFlowModel creates a checkout TUI that will run the given charge.
func NewFlowModel(ctx context.Context, service *payments.Service, input models.ChargeInput) *FlowModel {
	ctx, cancel := context.WithCancel(ctx)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title

	return &FlowModel{
		ctx:     ctx,
		cancel:  cancel,
		view:    RunningView,
		service: service,
		input:   input,
		spinner: sp,
	}
}

// Result returns the settled charge outcome once the program exits.
func (m *FlowModel) Result() (*payments.Result, error) {
	return m.result, m.err
}

// Init starts the charge and the spinner tick loop.
func (m *FlowModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCharge())
}

// Update handles incoming messages and updates the model state.
func (m *FlowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			if m.view == ResultView {
				return m, tea.Quit
			}
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = payments.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case chargeCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.cancel()
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *FlowModel) View() string {
	switch m.view {
	case RunningView:
		return m.renderRunning()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *FlowModel) renderRunning() string {
	title := styles.title.Render(fmt.Sprintf("Charging %d %s", m.input.Amount, m.input.Currency))

	message := m.progress.Message
	if message == "" {
		message = "Starting checkout..."
	}

	help := styles.help.Render("q to cancel")
	return fmt.Sprintf("%s\n%s %s\n\n%s\n", title, m.spinner.View(), message, help)
}

func (m *FlowModel) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("✗ Checkout failed: %v", m.err)) + "\n"
	}

	if m.result != nil && m.result.Aborted {
		return styles.warn.Render("Checkout abandoned before payment completed") + "\n"
	}

	if m.result == nil || m.result.Charge == nil {
		return styles.err.Render("✗ No charge result available") + "\n"
	}

	charge := m.result.Charge
	title := styles.ok.Render("✓ Payment Complete")
	info := fmt.Sprintf("Charge: %s\nAmount: %d %s\nState: %s", charge.ID, charge.Amount, charge.Currency, charge.State)
	return fmt.Sprintf("%s\n%s\n", title, info)
}

func (m *FlowModel) startCharge() tea.Cmd {
	m.progressChan = make(chan payments.ProgressUpdate, 50)

	done := make(chan chargeCompleteMsg, 1)
	m.doneChan = done

	go func() {
		result, err := m.service.Charge(m.ctx, m.input, m.progressChan)
		done <- chargeCompleteMsg{result: result, err: err}
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *FlowModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			return <-m.doneChan
		}
		return progressUpdateMsg(update)
	}
}
