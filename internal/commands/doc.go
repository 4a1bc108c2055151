// Package commands defines the built-in socket command surface: protocol
// commands (ping, event subscription) and the config registry commands
// for areas, floors, labels, and devices.
//
// Handlers return registry errors as-is; Translate maps them to wire
// error codes at the dispatch boundary so the registries stay free of
// protocol concerns.
package commands
