// Package event defines the event envelope and event-type registry used by
// the action write path.
//
// Events are the state deltas an accepted action produces. The registry checks
// that every emitted event has a known type and a payload its definition
// accepts before the aggregate folds it into player state.
package event
