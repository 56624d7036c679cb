package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/inkpot-dev/inkwell/internal/server"
	"github.com/inkpot-dev/inkwell/internal/shared"
)

var getRuntime = func() string { return runtime.GOOS }

// launchBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func launchBrowser(url string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

// nativeWindow represents a tab opened in the system browser. Messages
// flow back through the loopback callback server; closed-by-user cannot
// be observed, so Closed fires only on an explicit Close.
type nativeWindow struct {
	*winCore
}

// Native is the [Environment] backed by the real system browser plus a
// loopback HTTP callback server. The identity provider's redirect to the
// callback URL is converted into an [AuthCallbackAction] message posted
// to the Self window from the popup that is currently in flight.
type Native struct {
	logger *log.Logger
	out    io.Writer
	addr   string
	self   *winCore

	mu      sync.Mutex
	current *nativeWindow
	srv     *http.Server
}

// NewNative creates a native environment whose callback server will bind
// to host:port. Output defaults to [os.Stdout].
func NewNative(host string, port int, logger *log.Logger, out io.Writer) *Native {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Native{
		logger: logger,
		out:    out,
		addr:   fmt.Sprintf("%s:%d", host, port),
		self:   newWinCore("about:client"),
	}
}

// Start launches the loopback callback server. Must be called before any
// popup flow that expects a provider redirect.
func (n *Native) Start() error {
	router := server.NewBasicRouter()
	router.Use(server.Logging(n.logger))
	router.Handler(server.NewCallbackHandler(n.completeFlow, n.logger))

	n.mu.Lock()
	n.srv = &http.Server{Addr: n.addr, Handler: router}
	srv := n.srv
	n.mu.Unlock()

	errs := make(chan error, 1)
	go func() {
		n.logger.Infof("starting callback server at %v", n.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	// Surface immediate bind failures; otherwise assume the listener is up.
	select {
	case err := <-errs:
		return fmt.Errorf("callback server failed: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop shuts the callback server down.
func (n *Native) Stop(ctx context.Context) error {
	n.mu.Lock()
	srv := n.srv
	n.srv = nil
	n.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (n *Native) Open(url string, features Features) (Window, error) {
	if err := launchBrowser(url); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPopupBlocked, err)
	}

	w := &nativeWindow{winCore: newWinCore(url)}
	n.mu.Lock()
	n.current = w
	n.mu.Unlock()

	return w, nil
}

// Navigate cannot replace the terminal with a browser document; it prints
// the URL so the user can continue by hand.
func (n *Native) Navigate(url string) error {
	_, err := fmt.Fprintf(n.out, "Open this URL in your browser to continue:\n%s\n", url)
	return err
}

func (n *Native) Self() Window { return n.self }

// Opener always returns nil: the CLI process is never a popup context.
func (n *Native) Opener() Window { return nil }

func (n *Native) CallbackURL() string {
	return fmt.Sprintf("http://%s/callback", n.addr)
}

// completeFlow forwards a provider redirect to the opener window as a
// message from the popup currently in flight.
func (n *Native) completeFlow(status int) {
	n.mu.Lock()
	popup := n.current
	n.mu.Unlock()

	if popup == nil {
		n.logger.Warn("callback received with no popup in flight", "status", status)
		return
	}

	n.self.Post(Message{
		Action:  AuthCallbackAction,
		Payload: CallbackPayload{Status: status},
		Source:  popup,
	})
}
