// Package media defines the messages that travel along a chain. Every message
// carries a (type, subtype) tag so connections can filter on bitmasks; media
// messages additionally carry a source identifier and a timestamp and can be
// duplicated when a component needs to retain them beyond one iteration.
package media
