// Package yamlconfig loads chain definitions from YAML files into the same
// format-agnostic model the HCL loader produces.
package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vk/mediachain/internal/config"
	"github.com/vk/mediachain/internal/ctxlog"
	"github.com/vk/mediachain/internal/fsutil"
	"github.com/vk/mediachain/internal/hcl"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions handled by the loader.
var Extensions = []string{".yaml", ".yml"}

type fileRoot struct {
	Chains []chainDoc `yaml:"chains"`
}

type chainDoc struct {
	Name        string          `yaml:"name"`
	Start       string          `yaml:"start"`
	Components  []componentDoc  `yaml:"components"`
	Connections []connectionDoc `yaml:"connections"`
}

type componentDoc struct {
	Kind      string         `yaml:"kind"`
	Name      string         `yaml:"name"`
	Arguments map[string]any `yaml:"arguments"`
}

type connectionDoc struct {
	From     string   `yaml:"from"`
	To       string   `yaml:"to"`
	Feedback bool     `yaml:"feedback"`
	Types    []string `yaml:"types"`
	Subtypes []string `yaml:"subtypes"`
}

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .yaml and .yml file under paths.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFiles(paths, Extensions...)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered YAML files.", "count", len(files))

	model := &config.Model{}
	for _, file := range files {
		fileModel, err := loadFile(file)
		if err != nil {
			return nil, nil, err
		}
		if err := model.Merge(fileModel); err != nil {
			return nil, nil, err
		}
	}

	logger.Debug("YAML loading complete.", "files", len(files), "chains", len(model.Chains))
	return model, hcl.NewConverter(), nil
}

func loadFile(file string) (*config.Model, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var root fileRoot
	if err := dec.Decode(&root); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", file, err)
	}

	model := &config.Model{}
	for _, doc := range root.Chains {
		c, err := translateChain(doc, file)
		if err != nil {
			return nil, err
		}
		model.Chains = append(model.Chains, c)
	}
	return model, nil
}

func translateChain(doc chainDoc, file string) (*config.Chain, error) {
	if doc.Name == "" {
		return nil, fmt.Errorf("%s: chain without a name", file)
	}
	c := &config.Chain{Name: doc.Name, Start: doc.Start, Source: file}
	for _, comp := range doc.Components {
		if comp.Kind == "" || comp.Name == "" {
			return nil, fmt.Errorf("%s: chain '%s': component needs both kind and name", file, doc.Name)
		}
		var args map[string]cty.Value
		if len(comp.Arguments) > 0 {
			args = make(map[string]cty.Value, len(comp.Arguments))
			for name, raw := range comp.Arguments {
				v, err := toCty(raw)
				if err != nil {
					return nil, fmt.Errorf("%s: chain '%s', component '%s', argument '%s': %w", file, doc.Name, comp.Name, name, err)
				}
				args[name] = v
			}
		}
		c.Components = append(c.Components, &config.Component{Kind: comp.Kind, Name: comp.Name, Arguments: args})
	}
	for _, conn := range doc.Connections {
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
