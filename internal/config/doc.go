// Package config defines the format-agnostic model of chain definition files
// along with the Loader and Converter interfaces used to produce and
// interpret it.
//
// The `config.Model` is the only input of the `builder` package. Concrete
// implementations of the interfaces live in separate packages: `hcl` for
// .hcl files and `yamlconfig` for .yaml/.yml files.
package config
