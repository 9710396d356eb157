// Package common contains shared constants and sentinel errors used across
// gophauth components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// RequestIDHeaderName is the HTTP header (and gRPC metadata key) carrying
// the per-request correlation id.
const RequestIDHeaderName = "X-Request-ID"

// DefaultRoleName is the role attached to every newly registered user.
const DefaultRoleName = "ROLE_USER"
