// Package registry implements the hub's organisational registries:
// areas, floors and labels.
//
// All registries share one pattern: slug IDs generated from the display
// name, uniqueness on the normalised name, stable ordering, change events
// on the bus, and debounced full-snapshot persistence to SQLite. The
// generic Store carries that pattern; the concrete registries add their
// entry types and cascade hooks.
package registry
