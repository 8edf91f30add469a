// Package task defines the install task model shared by the queue store,
// the event bridge and the IPC surface.
package task
