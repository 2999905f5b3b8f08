// Package registry provides the central "glue" for the module system.
//
// The Registry maps the component kinds used in chain definition files
// (e.g., "mixer") to the compiled Go factories that create them, together
// with the argument struct each factory expects.
//
// During application startup, every module registers its kinds and the
// registry is validated so that argument structs are known to be decodable
// before any definition file is read.
package registry
