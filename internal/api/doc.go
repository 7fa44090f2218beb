// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the task queue: enqueue endpoints hand work to the queue and answer
// immediately, read endpoints serve the cached catalog and queue state.
package api
