// Package execctx decides whether the running process may talk to the
// document store directly or must go through the HTTP proxy boundary.
//
// The decision is made once per process and injected downstream. Components
// never re-derive it mid-operation, so a request cannot start under one trust
// level and finish under another.
package execctx
