// Package logfeed is the game's terminal log: an ordered, bounded record of
// entries with synchronous publish/subscribe delivery.
//
// Every entry reaches every listener that is subscribed when the entry is
// delivered, in publish order, with the same order for all listeners. A
// publish made from inside a listener is queued behind the entry currently
// being delivered. Listener panics are recovered and counted so one broken
// subscriber cannot starve the others.
package logfeed
