// Package storeerr classifies document-store failures into a small taxonomy.
//
// Every store call site passes its error through Classify exactly once. The
// resulting Kind decides recovery: reads degrade to an empty result on
// NotFound and ResourceMissing, writes retry only on Network, and everything
// else propagates to the caller.
//
// Classification is pure. It recognizes typed errors first (docstore, auth
// and resilience sentinels, SQLite result codes, net.Error) and falls back to
// message matching for errors that only carry text, such as those relayed
// across the proxy boundary.
package storeerr
