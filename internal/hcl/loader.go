package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/mediachain/internal/config"
	"github.com/vk/mediachain/internal/ctxlog"
	"github.com/vk/mediachain/internal/fsutil"
	"github.com/vk/mediachain/internal/schema"
)

// Extension is the file extension handled by the loader.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths and translates its chain blocks
// into the model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, Extension)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.File
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		fileModel := &config.Model{}
		for _, c := range root.Chains {
			translated, err := translateChain(c, file)
			if err != nil {
				return nil, nil, err
			}
			fileModel.Chains = append(fileModel.Chains, translated)
		}
		if err := model.Merge(fileModel); err != nil {
			return nil, nil, err
		}
	}

	logger.Debug("HCL loading complete.", "files", len(files), "chains", len(model.Chains))
	return model, NewConverter(), nil
}
