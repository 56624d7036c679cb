// Package session owns the authentication lifecycle: the state store and
// its transition table, the bootstrap and popup authorize flows, and the
// token refresh schedule.
//
// Identity is fail-open. Bootstrap and refresh failures degrade the
// session to anonymous or unauthenticated instead of surfacing errors,
// so content browsing is never blocked by the identity service. The
// explicit flows a user initiates, such as Authorize, do return errors.
package session
