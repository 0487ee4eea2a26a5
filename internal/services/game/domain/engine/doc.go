// Package engine owns the operator state and runs every action through one
// ordered commit path: validate, decide, fold, swap, publish, save.
//
// Callers may submit actions from many goroutines. Each accepted action
// takes a ticket; the simulated resolution delay runs concurrently, but
// commits happen strictly in ticket order, so no reader ever observes a
// half-applied delta and the last commit is always the last write to
// storage.
package engine
