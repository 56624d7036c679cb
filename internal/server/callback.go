package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
)

// CallbackHandler terminates the identity provider's redirect leg of a
// popup login flow. The provider redirects the popup to /callback with a
// status query parameter (an HTTP-status-like integer); the handler
// forwards that status to the completion function and serves a page
// telling the user the window can be closed.
//
// Implements the [Handler] interface for registration with a [Router].
type CallbackHandler struct {
	complete func(status int)
	logger   *log.Logger
}

// NewCallbackHandler creates a callback handler that reports each
// completed redirect through the given function.
func NewCallbackHandler(complete func(status int), logger *log.Logger) *CallbackHandler {
	return &CallbackHandler{complete: complete, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP parses the status parameter and reports flow completion.
//
// A missing or malformed status is rejected without touching the flow;
// the popup stays open and the login flow keeps waiting.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("status")
	status, err := strconv.Atoi(raw)
	if err != nil {
		h.logger.Warnf("callback with invalid status %q", raw)
		http.Error(w, "Invalid status parameter", http.StatusBadRequest)
		return
	}

	h.complete(status)

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Sign-in Complete</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #5c4ee5; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Sign-in Complete</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Logging returns middleware that logs each request served by the
// callback server.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	}
}
