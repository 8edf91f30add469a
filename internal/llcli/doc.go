// Package llcli wraps the ll-cli package manager binary so the queue store
// can launch installs and observe progress.
//
// Install starts the external process and returns once it is running.
// Everything after that (progress lines, completion, failure, cancellation)
// is published to the event bus and consumed by the ingestion bridge. Tests
// can swap the command constructor to avoid executing the real binary while
// still exercising the event flow.
package llcli
