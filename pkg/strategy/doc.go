// Package strategy decides which executor services a workload.
//
// A Strategy owns a small, fixed set of executor units built once at
// startup. Lookup classifies the workload identifier handed over by the
// messaging layer and returns the unit for its category, falling back to the
// general-purpose unit.
//
// Registry is the concrete Strategy. It is built from a Profile, which pairs
// a Classifier with per-category pool sizing. Three profiles are built in
// and selected by Kind:
//
//   - default: elastic general pool (core N, max 2N) and a fixed request
//     pool (core = max = N), where N is the number of concurrency units.
//   - shared: everything on the elastic general pool.
//   - isolated: default plus a fixed broadcast pool.
//
// Registry has two states. New returns only once every unit is built and
// pre-warmed; Shutdown drains the units and is terminal.
package strategy
