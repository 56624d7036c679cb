// Package api implements the HTTP client for the platform's identity and
// checkout endpoints.
//
// Identity surface ({auth_url} base):
//   - GET /userinfo → [models.UserProfile]
//   - GET /access_token → short-lived bearer token with server-declared TTL
//   - /idp/{provider}/authorize → provider login page, opened in a popup
//
// Checkout surface ({api_url} base):
//   - POST /v1/checkout → charge record with provider payment URL
//   - GET /v1/checkout?id= → charge record with current status
//
// The platform serves CBOR by default and JSON on request; [Client]
// decodes whichever the Content-Type declares. All calls take a
// [context.Context] and abort with it.
package api
