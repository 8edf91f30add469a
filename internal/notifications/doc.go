// Package notifications delivers install lifecycle events via pluggable
// notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The queue store depends only on the Service interface, so
// alternative transports can be swapped in without touching queue code.
package notifications
