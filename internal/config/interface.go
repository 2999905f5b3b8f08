package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads every file of the loader's format found under paths,
	// translates it into the format-agnostic model, and returns a matching
	// Converter. Files of other formats are ignored.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter binds component arguments to the Go types used by component
// factories.
type Converter interface {
	// DecodeArguments populates target, a pointer to a struct whose fields
	// carry `cty:"name"` tags. Arguments without a matching field are an
	// error; fields without an argument keep their current value.
	DecodeArguments(ctx context.Context, target any, args map[string]cty.Value) error

	// ToCtyValue converts a native Go value into its cty.Value equivalent.
	ToCtyValue(v any) (cty.Value, error)
}
