package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/nfse-labs/nfse-tracker/constants"
	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		r.logger.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
	} else {
		r.logger.Debug("exec ok",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
		)
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// ImageOCR shells out to tesseract for image documents, the last-resort strategy
// when the vision model produced nothing. Like PDFText, its output is raw text
// under "texto_extraido".
type ImageOCR struct {
	bin      string
	language string
	runner   Runner
	logger   *slog.Logger
}

func NewImageOCR(bin, language string, logger *slog.Logger) *ImageOCR {
	if bin == "" {
		bin = "tesseract"
	}
	if language == "" {
		language = "por"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageOCR{bin: bin, language: language, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner; tests use this.
func (o *ImageOCR) WithRunner(r Runner) *ImageOCR {
	o.runner = r
	return o
}

func (o *ImageOCR) Name() string { return "image-ocr" }

func (o *ImageOCR) Extract(ctx context.Context, doc entity.SourceDocument) (RawResult, error) {
	if constants.MapExtToFormat(filepath.Ext(doc.Filename)) != constants.IMAGE {
		return RawResult{}, nil
	}

	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	// tesseract wants a file on disk
	tmp, err := os.CreateTemp("", "nfse-ocr-*"+filepath.Ext(doc.Filename))
	if err != nil {
		return nil, fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	stdout, _, err := o.runner.Run(ctx, o.bin, tmp.Name(), "stdout", "-l", o.language)
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w", err)
	}

	text := strings.TrimSpace(string(stdout))
	if text == "" {
		return RawResult{}, nil
	}
	return RawResult{"texto_extraido": text}, nil
}
