package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/nfse-labs/nfse-tracker/internal/common"
	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

// hashChunkSize is the read granularity; documents are never loaded whole.
const hashChunkSize = 4096

// HashReader folds a byte stream through a 128-bit digest and returns the
// lowercase hex fingerprint (32 chars). Inputs are benign scanned documents, so
// md5 is enough: the hash is a dedup key, not a security boundary.
func HashReader(r io.Reader) (string, error) {
	h := md5.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashDocument computes the content hash of a source document. Any I/O failure is
// wrapped as common.ErrSourceRead so the coordinator can classify it per file.
func HashDocument(doc entity.SourceDocument) (string, error) {
	r, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", common.ErrSourceRead, doc.Filename, err)
	}
	defer r.Close()

	sum, err := HashReader(r)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", common.ErrSourceRead, doc.Filename, err)
	}
	return sum, nil
}
