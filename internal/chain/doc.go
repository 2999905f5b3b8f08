// Package chain is the execution layer of mediachain. A Chain holds a set of
// components and the directed connections between them, orders the
// connections breadth-first from a declared start component, derives the
// feedback subchains, and drives a single background worker that runs the
// graph one iteration at a time.
//
// # Iteration
//
// Each iteration, with the structural lock held:
//
//  1. media.IterationBegin is pushed into the start component.
//  2. For every connection in order, the pull side is drained with Pull
//     until it returns nil, and each message whose type and subtype pass the
//     connection masks is pushed into the push side.
//  3. Every feedback subchain is walked from its most downstream component
//     back to its head, sharing one component.Feedback record per subchain.
//
// Any error aborts the iteration and terminates the worker. The exit handler
// is invoked exactly once per worker with the failing component and the error
// description.
//
// # Locking
//
// The structural lock is outermost and is held for a whole iteration; Rebuild
// takes it to swap the plan. Component locks are inner and are held only
// around a single connection step or feedback call. When both ends of a
// connection are the same component it is locked once.
package chain
