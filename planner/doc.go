// Package planner turns catalog filter sets into document store operations.
//
// Choose selects one of three access patterns in priority order: a point
// lookup when an id is given, an indexed query when exactly one of category,
// owner or status is set, and a full scan otherwise. Free-text search is
// always applied after retrieval. Planner executes the chosen plan behind a
// read-through cache and degrades missing data or missing tables to empty
// results.
package planner
