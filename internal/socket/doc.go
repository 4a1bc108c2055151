// Package socket implements the WebSocket command protocol that clients
// use to drive the hub.
//
// A client connects to the socket endpoint, receives auth_required, and
// must answer with an auth frame carrying a JWT access token before
// anything else. After auth_ok, the client sends command frames:
//
//	{"id": 5, "type": "config/area_registry/create", "name": "Kitchen"}
//
// Every command receives exactly one result frame tagged with its id:
//
//	{"id": 5, "type": "result", "success": true, "result": {...}}
//	{"id": 5, "type": "result", "success": false,
//	 "error": {"code": "invalid_info", "message": "..."}}
//
// Subscription commands additionally push event frames under the same id
// until unsubscribed or the connection closes. Request ids must strictly
// increase within one connection; handlers run concurrently, so results
// may arrive out of order and clients correlate by id, not position.
//
// Commands are registered once at startup in a Registry, each with a
// Schema validated before the handler runs. Cross-cutting concerns
// (admin gating, domain error translation) compose as an explicit
// middleware chain around each handler.
package socket
