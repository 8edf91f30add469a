// Package statestore persists small durable records in SQLite. The queue
// store uses it for the single active-task record that survives a crash.
package statestore
