// Package aggregate folds action events into player state.
//
// Folding is the only place player.State changes. Each event type touches
// one slice of the record, and a fold error means the whole batch of events
// from one action must be discarded by the caller.
package aggregate
