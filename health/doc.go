// Package health reports whether the catalog access layer can serve.
//
// A Checker reports one dependency. The catalog registers:
//   - "store": pings the document store (trusted mode) or the catalog
//     proxy (proxied mode), classified through storeerr
//   - "memory": heap usage against configured thresholds
//
// The Aggregator runs checkers concurrently and Routes exposes them:
//
//	GET /healthz        liveness, always 200
//	GET /readyz         200 unless a check is unhealthy
//	GET /health         JSON detail of every check
//	GET /health/{name}  JSON detail of one check
package health
