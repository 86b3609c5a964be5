package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/donseok/pbtm-project/extractor"
)

// scannedExtensions is the file-extension allowlist this corpus's
// extractor-less "text" mode recognizes directly, mirroring parser.go's
// extByType plus the data-grid descriptor extensions.
var scannedExtensions = map[string]bool{
	".win": true, ".uo": true, ".mnu": true, ".fun": true,
	".scr": true, ".lib": true, ".dw": true, ".srd": true,
}

// scanTextDirectory implements --extractor=text: input is already a
// directory of plain-text sources, so the "extraction" step is just a
// filesystem walk producing a Manifest with no Failures of its own.
func scanTextDirectory(root string) (extractor.Manifest, error) {
	info, err := os.Stat(root)
	if err != nil {
		return extractor.Manifest{}, fmt.Errorf("scanning %q: %w", root, err)
	}
	if !info.IsDir() {
		return extractor.Manifest{}, fmt.Errorf("scanning %q: not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !scannedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return extractor.Manifest{}, fmt.Errorf("scanning %q: %w", root, err)
	}

	return extractor.Manifest{InputPath: root, OutDir: root, Files: files}, nil
}
