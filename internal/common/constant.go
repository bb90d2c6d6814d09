package common

// AuthHeaderName is the HTTP header carrying the bearer session token.
const AuthHeaderName = "Authorization"

// BearerSchemePrefix is the expected prefix of the auth header value.
const BearerSchemePrefix = "Bearer "
