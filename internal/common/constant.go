package common

// AuthorizationHeaderName is the HTTP header that carries the session token
// on authenticated requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// DefaultCategory is assigned to credentials stored without a category.
const DefaultCategory = "General"

// DefaultInactivityTimeout is the inactivity timeout, in minutes, applied
// when registration does not specify one.
const DefaultInactivityTimeout = 15
