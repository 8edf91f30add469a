// Package main hosts the llstore CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC
// calls against the llstored daemon: queueing installs, inspecting and
// trimming the queue, listing installed apps and available updates,
// searching the catalog, and configuration scaffolding. It centralizes
// configuration resolution and socket discovery so subcommands can focus
// on presentation.
//
// Keep this package lean: new functionality belongs in the internal
// packages first, surfaced here through dedicated commands or flags.
package main
