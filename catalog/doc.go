// Package catalog defines the marketplace catalog domain: items, their
// lifecycle status, immutable filter sets and the Service contract that both
// the trusted (direct store) and proxied (HTTP) implementations satisfy.
package catalog
