// Package events decouples the HTTP layer from the task queue. API
// handlers emit TaskRequestEvents describing work to schedule; the queue
// side registers an EventHandler that turns each event into a durable
// enqueue. Neither side imports the other.
package events
