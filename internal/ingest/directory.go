package ingest

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/nfse-labs/nfse-tracker/constants"
	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// AllowedExt checks if a file extension is in the allowed set (pdf/jpg/jpeg/png).
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// CollectDocuments walks root and returns a SourceDocument per matching file,
// skipping hidden entries when requested. Walk errors on individual entries are
// skipped rather than aborting the collection.
func CollectDocuments(root string, skipHidden bool) ([]entity.SourceDocument, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}

	var docs []entity.SourceDocument
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // continue walking
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		docs = append(docs, entity.NewFileDocument(path))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
