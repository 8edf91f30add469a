// Package preflight validates the environment before the daemon starts
// taking install requests: directory access, free disk space, catalog
// reachability, and the external tools the pipeline shells out to.
package preflight
