// Package extract converts uploaded files into plain text for chunking
// and indexing. PDF extraction runs pdfium in a WebAssembly sandbox.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"

	"github.com/docdexhq/docdex/internal/log"
)

// ErrUnsupportedFormat indicates the file extension is not extractable.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrDecode indicates the file content could not be decoded as text.
var ErrDecode = errors.New("cannot decode file content")

const instanceTimeout = 30 * time.Second

// Extractor converts raw file bytes into plain text based on the file
// extension. The pdfium worker pool starts lazily on the first PDF so
// text-only deployments never pay the WebAssembly startup cost.
type Extractor struct {
	logger *log.Logger

	initOnce sync.Once
	initErr  error
	pool     pdfium.Pool
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{logger: logger}
}

// Supported reports whether the filename's extension is extractable.
func (e *Extractor) Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".pdf":
		return true
	default:
		return false
	}
}

// Text extracts plain text from raw file content. The extension of
// filename selects the extraction strategy.
func (e *Extractor) Text(raw []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return e.plainText(raw, filename)
	case ".pdf":
		return e.pdfText(raw, filename)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

func (e *Extractor) plainText(raw []byte, filename string) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrDecode, filename)
	}
	return string(raw), nil
}

func (e *Extractor) pdfText(raw []byte, filename string) (string, error) {
	if err := e.initPdfium(); err != nil {
		return "", fmt.Errorf("start pdfium: %w", err)
	}

	instance, err := e.pool.GetInstance(instanceTimeout)
	if err != nil {
		return "", fmt.Errorf("acquire pdfium instance: %w", err)
	}
	defer func() {
		if err := instance.Close(); err != nil {
			e.logger.Warn("close pdfium instance", "error", err)
		}
	}()

	doc, err := instance.OpenDocument(&requests.OpenDocument{File: &raw})
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrDecode, filename, err)
	}
	defer func() {
		_, err := instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		if err != nil {
			e.logger.Warn("close pdf document", "error", err)
		}
	}()

	pageCount, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: doc.Document})
	if err != nil {
		return "", fmt.Errorf("%w: page count of %s: %v", ErrDecode, filename, err)
	}

	var sb strings.Builder
	for i := 0; i < pageCount.PageCount; i++ {
		text, err := instance.GetPageText(&requests.GetPageText{
			Page: requests.Page{
				ByIndex: &requests.PageByIndex{
					Document: doc.Document,
					Index:    i,
				},
			},
		})
		if err != nil {
			// Best effort: a broken page should not lose the rest of
			// the document.
			e.logger.Warn("extract pdf page", "file", filename, "page", i, "error", err)
			continue
		}
		if text.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(text.Text)
	}

	return sb.String(), nil
}

func (e *Extractor) initPdfium() error {
	e.initOnce.Do(func() {
		pool, err := webassembly.Init(webassembly.Config{
			MinIdle:  1,
			MaxIdle:  1,
			MaxTotal: 1,
		})
		if err != nil {
			e.initErr = err
			return
		}
		e.pool = pool
		e.logger.Debug("pdfium pool started")
	})
	return e.initErr
}

// Close shuts down the pdfium worker pool if it was started.
func (e *Extractor) Close() error {
	if e.pool == nil {
		return nil
	}
	return e.pool.Close()
}
