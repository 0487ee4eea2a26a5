// Package action resolves operator commands against player state.
//
// Each command type has a decider that inspects a snapshot of the state and
// returns a command.Decision: either rejections, or the events that describe
// the outcome plus the log notes announcing it. Deciders never mutate state;
// the engine folds the events. All tuning numbers live in Balance so a
// balance file can retune the game without touching deciders.
package action
