// Package component defines the contract every chain node satisfies: the
// push/pull/feedback operations, an exclusive lock the scheduler holds around
// each call, and identity/error reporting. Base supplies the bookkeeping so
// concrete components only implement the operations they support.
package component
