package hcl

import (
	"fmt"

	"github.com/vk/mediachain/internal/config"
	"github.com/vk/mediachain/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// translateChain converts the HCL-specific chain schema into the agnostic
// model, evaluating component arguments.
func translateChain(s *schema.Chain, file string) (*config.Chain, error) {
	c := &config.Chain{
		Name:   s.Name,
		Start:  s.Start,
		Source: file,
	}
	for _, comp := range s.Components {
		args, err := evaluateArguments(comp.Arguments)
		if err != nil {
			return nil, fmt.Errorf("chain '%s', component '%s': %w", s.Name, comp.Name, err)
		}
		c.Components = append(c.Components, &config.Component{
			Kind:      comp.Kind,
			Name:      comp.Name,
			Arguments: args,
		})
	}
	for _, conn := range s.Connections {
		c.Connections = append(c.Connections, &config.Connection{
			From:     conn.From,
			To:       conn.To,
			Feedback: conn.Feedback,
			Types:    conn.Types,
			Subtypes: conn.Subtypes,
		})
	}
	return c, nil
}

func evaluateArguments(block *schema.Arguments) (map[string]cty.Value, error) {
	if block == nil || block.Body == nil {
		return nil, nil
	}
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	values := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("argument '%s': %w", name, diags)
		}
		values[name] = val
	}
	return values, nil
}
