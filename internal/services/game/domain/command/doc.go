// Package command defines the action command envelope, the registry that
// validates commands before they reach a decider, and the Decision value
// deciders return.
package command
