// Package metrics defines interfaces and implementations for collecting
// analysis metrics. Sinks like PromSink and InfluxSink record events such
// as finished solves or swept frontier points and can be combined with
// NewMultiSink. The factory helpers return a MultiSink automatically when
// multiple sinks are configured. A collector bridges lifecycle events from
// the internal event bus to the configured sinks.
package metrics
