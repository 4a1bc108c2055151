// Package events provides the in-process event bus connecting registries,
// the device layer and socket subscriptions.
//
// Registry mutations and device state changes publish here; the socket
// server forwards matching events to subscribed connections. Delivery is
// synchronous on the publisher's goroutine, so handlers must hand off
// slow work.
package events
