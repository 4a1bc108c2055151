// Package mqtt provides the broker connection shared by the hub and its
// protocol bridges.
//
// The client wraps paho.mqtt.golang with automatic reconnection,
// subscription restoration, Last Will and Testament for crash detection,
// and a retained online/offline status on hearth/system/status.
//
// Topic layout:
//
//	hearth/state/{protocol}/{address}    bridge -> hub state reports
//	hearth/command/{protocol}/{address}  hub -> bridge commands
//	hearth/health/{protocol}             bridge health heartbeats
//	hearth/core/state/{device_id}        hub -> clients device state
//	hearth/core/event/{event_type}       hub -> clients domain events
//	hearth/system/status                 hub availability (retained)
package mqtt
