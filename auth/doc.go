// Package auth authenticates the service-to-service hop across the catalog
// proxy boundary.
//
// The proxied side never holds store credentials. It holds a shared HS256
// signing key instead, mints short-lived service tokens with TokenIssuer, and
// sends them through Transport. The trusted side validates them with
// JWTAuthenticator inside Middleware and checks scopes with ScopeAuthorizer.
package auth
