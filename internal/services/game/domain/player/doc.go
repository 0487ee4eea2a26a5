// Package player defines the operator record: identity, resources, server
// telemetry and the bot fleet, plus the separately persisted profile.
//
// State values are plain data. Mutation happens only through event folds in
// the aggregate package; this package owns the invariants those folds keep.
package player
