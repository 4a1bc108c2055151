// Package device manages the device registry: persistence, an in-memory
// cache for read-heavy lookups, validation, and state updates flowing in
// from protocol bridges.
//
// Devices hold weak references to areas and labels. Deleting an area or
// label clears those references through cascade hooks; it never deletes
// the device.
package device
