// Package loader reads rule files into a rules.Table.
//
// Supported formats are native HCL (.hcl), HCL JSON syntax (.json) and YAML
// (.yaml, .yml). Files are read in the order they are found; when the same
// name appears twice the later entry is merged over the earlier one by the
// container.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/objgraph/internal/ctxlog"
	"github.com/specialistvlad/objgraph/internal/fsutil"
	"github.com/specialistvlad/objgraph/internal/rules"
)

// Extensions lists the file extensions the loader reads.
var Extensions = []string{".hcl", ".json", ".yaml", ".yml"}

// Source is the result of loading a set of rule files.
type Source struct {
	Table rules.Table
	// Digest identifies the exact bytes that were loaded. It keys the rule
	// table cache.
	Digest string
	Files  []string
}

// Loader loads rule files from disk.
type Loader struct{}

// NewLoader creates a new rule file loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads every rule file found under paths.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Source, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Rule loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered rule files.", "count", len(files))

	parser := hclparse.NewParser()
	hash := sha256.New()
	src := &Source{Table: rules.Table{}, Files: files}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read rule file %s: %w", file, err)
		}
		fmt.Fprintf(hash, "%s\x00%d\x00", filepath.Base(file), len(data))
		hash.Write(data)

		var table rules.Table
		switch filepath.Ext(file) {
		case ".yaml", ".yml":
			table, err = decodeYAML(file, data)
		default:
			table, err = decodeHCL(ctx, parser, file, data)
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded rule file.", "file", file, "rules", len(table))
		src.Table = append(src.Table, table...)
	}

	src.Digest = hex.EncodeToString(hash.Sum(nil))
	logger.Debug("Rule loading complete.", "files", len(files), "rules", len(src.Table))
	return src, nil
}
