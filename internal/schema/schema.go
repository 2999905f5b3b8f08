// Package schema holds the HCL block structure of chain definition files as
// decoded by gohcl.
package schema

import "github.com/hashicorp/hcl/v2"

// Arguments represents the content of the 'arguments' block within a
// component. Its attributes are evaluated without variables or functions.
type Arguments struct {
	Body hcl.Body `hcl:",remain"`
}

// Component represents a `component "kind" "name"` block.
type Component struct {
	Kind      string     `hcl:"kind,label"`
	Name      string     `hcl:"name,label"`
	Arguments *Arguments `hcl:"arguments,block"`
}

// Connection represents a `connection` block. Types and subtypes are mask
// names; omitting them accepts everything.
type Connection struct {
	From     string   `hcl:"from"`
	To       string   `hcl:"to"`
	Feedback bool     `hcl:"feedback,optional"`
	Types    []string `hcl:"types,optional"`
	Subtypes []string `hcl:"subtypes,optional"`
}

// Chain represents a `chain "name"` block.
type Chain struct {
	Name        string        `hcl:"name,label"`
	Start       string        `hcl:"start"`
	Components  []*Component  `hcl:"component,block"`
	Connections []*Connection `hcl:"connection,block"`
}

// File represents the top-level structure of a chain definition file.
type File struct {
	Chains []*Chain `hcl:"chain,block"`
}
