package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/inkpot-dev/inkwell/internal/api"
	"github.com/inkpot-dev/inkwell/internal/browser"
	"github.com/inkpot-dev/inkwell/internal/payments"
	"github.com/inkpot-dev/inkwell/internal/repositories"
	"github.com/inkpot-dev/inkwell/internal/session"
	"github.com/inkpot-dev/inkwell/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	client   *api.Client
	env      browser.Environment
	session  *session.Manager
	payments *payments.Service
	logger   *log.Logger
	output   io.Writer

	envOnce  sync.Once
	envErr   error
	envStart func() error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Client   *api.Client
	Env      browser.Environment
	EnvStart func() error
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Client == nil {
		opts.Client = api.NewClient(api.Opts{
			AuthURL: opts.Config.Platform.AuthURL,
			APIURL:  opts.Config.Platform.APIURL,
			Logger:  opts.Logger,
		})
	}

	return &Runner{
		config:   opts.Config,
		client:   opts.Client,
		env:      opts.Env,
		session:  session.NewManager(opts.Client, opts.Env, opts.Logger),
		payments: payments.NewService(opts.Client, opts.Env, opts.Logger),
		logger:   opts.Logger,
		output:   opts.Output,
		envStart: opts.EnvStart,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, chargeCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ensureEnv starts the window environment's callback server once, before
// the first popup flow.
func (r *Runner) ensureEnv() error {
	r.envOnce.Do(func() {
		if r.envStart != nil {
			r.envErr = r.envStart()
		}
	})
	return r.envErr
}

// openProfileCache connects to the local database for offline profile
// lookups. Callers own closing the handle.
func (r *Runner) openProfileCache() (*sql.DB, *repositories.ProfileRepository, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open profile cache: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, repositories.NewProfileRepository(db), nil
}

// bootstrap runs the initial session fetch so commands observe a settled
// Ready session, authenticated or anonymous.
func (r *Runner) bootstrap(ctx context.Context) session.State {
	r.session.Bootstrap(ctx)
	return r.session.State()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
