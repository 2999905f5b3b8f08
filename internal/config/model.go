package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of every chain
// definition that was loaded.
type Model struct {
	Chains []*Chain
}

// Chain is the format-agnostic representation of a `chain` block.
type Chain struct {
	Name        string
	Start       string
	Components  []*Component
	Connections []*Connection
	// Source is the file the chain was defined in.
	Source string
}

// Component is one component instance of a chain.
type Component struct {
	Kind      string
	Name      string
	Arguments map[string]cty.Value
}

// Connection is a directed edge between two components of the same chain,
// referenced by name. Empty Types or Subtypes mean "all".
type Connection struct {
	From     string
	To       string
	Feedback bool
	Types    []string
	Subtypes []string
}

// Merge appends the chains of other. Chain names must stay unique.
func (m *Model) Merge(other *Model) error {
	if other == nil {
		return nil
	}
	for _, c := range other.Chains {
		if existing := m.Chain(c.Name); existing != nil {
			return fmt.Errorf("chain '%s' defined twice (%s and %s)", c.Name, existing.Source, c.Source)
		}
		m.Chains = append(m.Chains, c)
	}
	return nil
}

// Chain returns the chain called name, or nil.
func (m *Model) Chain(name string) *Chain {
	for _, c := range m.Chains {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Component returns the component called name, or nil.
func (c *Chain) Component(name string) *Component {
	for _, comp := range c.Components {
		if comp.Name == name {
			return comp
		}
	}
	return nil
}

// Validate checks the chain's internal references.
func (c *Chain) Validate() error {
	seen := make(map[string]bool, len(c.Components))
	for _, comp := range c.Components {
		if seen[comp.Name] {
			return fmt.Errorf("chain '%s': component '%s' defined twice", c.Name, comp.Name)
		}
		seen[comp.Name] = true
	}
	if c.Start == "" {
		return fmt.Errorf("chain '%s': no start component", c.Name)
	}
	if !seen[c.Start] {
		return fmt.Errorf("chain '%s': start component '%s' is not defined", c.Name, c.Start)
	}
	for i, conn := range c.Connections {
		for _, end := range []string{conn.From, conn.To} {
			if !seen[end] {
				return fmt.Errorf("chain '%s': connection %d refers to undefined component '%s'", c.Name, i, end)
			}
		}
	}
	return nil
}
