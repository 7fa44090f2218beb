// Package task implements the durable background task queue: the task
// lifecycle and store contract, the handler registry, the backoff policy,
// and the worker pool that claims and executes tasks. The database is the
// only queue; workers on any process coordinate exclusively through it.
package task
