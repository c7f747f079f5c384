// Package docstore defines the document store contract the catalog is built
// on, together with an in-memory implementation.
//
// The contract mirrors a managed key/value document database: items are keyed
// by "id", three secondary indexes (byCategory, byOwner, byStatus) are sorted
// by creation time, numeric range predicates are evaluated server side, and
// there is neither free-text search nor composite indexing.
//
// A SQLite implementation lives in docstore/sqlite.
package docstore
