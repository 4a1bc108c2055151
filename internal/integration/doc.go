// Package integration hosts vendor bridges behind a typed setup
// context. Integrations receive accessors for the registries, bus, and
// command table at Setup time and register typed capability objects;
// nothing is discovered by reflection or global lookup.
package integration
