// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces (repositories) defined in the internal/store package and
// for the task queue's persistence contract. It handles query execution,
// error mapping, and the row locking that makes concurrent task claims safe.
package postgres
