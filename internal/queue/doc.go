// Package queue implements the serial install orchestrator.
//
// A single Store owns the pending queue, the one active task, and the
// bounded history of finished tasks. All mutation goes through the Store's
// mutex, so callers observe a consistent picture: at most one task is ever
// installing, duplicates collapse onto the existing task, and a failure
// never blocks the tasks queued behind it.
//
// The Store persists the active task after every mutation and clears the
// record on completion. On startup CheckRecovery reconciles a leftover
// record against the installed-app list, so an install that finished right
// before a crash is confirmed instead of being reported as failed.
package queue
