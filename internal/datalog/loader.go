package datalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// RuleFile represents a loaded Rego rule file.
type RuleFile struct {
	// Path is the path to the rule file.
	Path string `json:"path"`
	// Name is the base name of the file without extension.
	Name string `json:"name"`
	// Content is the raw Rego source code.
	Content string `json:"content"`
}

// Loader scans and loads .rego rule files from a directory.
// It uses an afero.Fs interface for filesystem operations, enabling
// easy testing with in-memory filesystems.
type Loader struct {
	fs      afero.Fs
	baseDir string
}

// NewLoader creates a rule loader over the provided filesystem.
// Use afero.NewOsFs() for real filesystem operations, or
// afero.NewMemMapFs() for testing.
func NewLoader(fs afero.Fs, baseDir string) *Loader {
	return &Loader{fs: fs, baseDir: baseDir}
}

// LoadAll loads every .rego file under the configured directory,
// scanning subdirectories recursively. A missing directory yields an
// empty slice (no rules configured), not an error.
func (l *Loader) LoadAll() ([]*RuleFile, error) {
	exists, err := afero.DirExists(l.fs, l.baseDir)
	if err != nil {
		return nil, fmt.Errorf("check rules directory: %w", err)
	}
	if !exists {
		return []*RuleFile{}, nil
	}

	var rules []*RuleFile

	err = afero.Walk(l.fs, l.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(info.Name(), ".rego") {
			return nil
		}

		content, err := afero.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("read rule file %s: %w", path, err)
		}

		name := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
		rules = append(rules, &RuleFile{
			Path:    path,
			Name:    name,
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk rules directory: %w", err)
	}

	return rules, nil
}
