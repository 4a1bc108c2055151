// Package demobridge is a reference vendor bridge: it owns a modem
// link behind an opaque client interface, exposes an admin command to
// reconfigure it, and registers a device info capability with the
// integration layer.
package demobridge
