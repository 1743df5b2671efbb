package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

func TestHashDocumentKnownVector(t *testing.T) {
	doc := entity.NewBytesDocument("abc.txt", []byte("abc"))
	hash, err := HashDocument(doc)
	require.NoError(t, err)
	require.Equal(t, "900150983cd24fb0d6963f7d28e17f72", hash)
}

func TestHashDocumentStableAcrossReads(t *testing.T) {
	doc := entity.NewBytesDocument("a.pdf", []byte("conteudo qualquer"))
	first, err := HashDocument(doc)
	require.NoError(t, err)
	second, err := HashDocument(doc)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, first, 32)
}

func TestHashDocumentLargerThanChunk(t *testing.T) {
	data := make([]byte, hashChunkSize*3+17)
	for i := range data {
		data[i] = byte(i % 251)
	}
	hash, err := HashDocument(entity.NewBytesDocument("big.bin", data))
	require.NoError(t, err)
	require.Len(t, hash, 32)
}
