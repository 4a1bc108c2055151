// Package telemetry records device metrics and state transitions to
// InfluxDB.
//
// Telemetry is optional: when disabled in configuration, Connect returns
// ErrDisabled and the hub runs without it. Writes are batched and
// non-blocking, so recording a metric never stalls a state update or a
// socket command.
package telemetry
