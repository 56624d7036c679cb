// Package server provides the loopback HTTP surface for popup login flows.
//
// The popup login flow opens the system browser at the identity provider's
// authorize URL with a next_url pointing back at this server. When the
// provider finishes, the popup is redirected to /callback?status=N and the
// [CallbackHandler] converts that redirect into an in-process completion
// signal; the browser environment then posts it to the opener window as a
// channel message.
//
// The [Router]/[Handler]/[Middleware] trio keeps the surface pluggable:
// handlers declare their own routes, and middleware (such as [Logging])
// wraps every registered handler.
package server
