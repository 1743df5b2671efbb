package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/nfse-labs/nfse-tracker/constants"
	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

// PDFText is the text-layer fallback for PDFs: when the vision model yields
// nothing, the embedded text (if any) is surfaced under "texto_extraido" so the
// record at least carries the raw content for the reviewer.
type PDFText struct {
	logger *slog.Logger
}

func NewPDFText(logger *slog.Logger) *PDFText {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFText{logger: logger}
}

func (p *PDFText) Name() string { return "pdf-text" }

func (p *PDFText) Extract(ctx context.Context, doc entity.SourceDocument) (RawResult, error) {
	if constants.MapExtToFormat(filepath.Ext(doc.Filename)) != constants.PDF {
		return RawResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Warn("extract.pdf.page_failed", "file", doc.Filename, "page", i, "error", err)
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return RawResult{}, nil
	}
	return RawResult{"texto_extraido": text}, nil
}
