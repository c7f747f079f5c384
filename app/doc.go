// Package app assembles catalogd from configuration.
//
// New is the one place that decides which catalog.Service a process gets:
// a trusted process reads through the planner and writes through the
// mutation pipeline against its own store; a proxied process gets a proxy
// client and never opens the store or sees its location.
package app
