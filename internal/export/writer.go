package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dataplane-labs/quality-sync/internal/config"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

// Writer lands exports in the configured directory with date-stamped
// filenames.
type Writer struct {
	dir    string
	logger logger.Logger
	now    func() time.Time
}

func NewWriter(cfg config.ExportConfig, log logger.Logger) *Writer {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir, logger: log, now: time.Now}
}

// WriteText writes already-built export text under a date-stamped name
// derived from the asset's qualified name.
func (w *Writer) WriteText(qualifiedName string, format Format, text string) (string, error) {
	name := fmt.Sprintf("%s-columns-%s.%s", slug(qualifiedName), w.now().Format("2006-01-02"), format)
	return w.write(name, []byte(text))
}

// WriteBlob writes a backend-rendered report (xlsx, pdf, docx) under
// the filename the restapi client derived for it.
func (w *Writer) WriteBlob(filename string, blob []byte) (string, error) {
	return w.write(filepath.Base(filename), blob)
}

func (w *Writer) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	w.logger.Info("export written", "path", path, "bytes", len(data))
	return path, nil
}

func slug(qualifiedName string) string {
	s := strings.ToLower(qualifiedName)
	s = strings.NewReplacer(".", "-", " ", "-", "/", "-").Replace(s)
	return s
}
