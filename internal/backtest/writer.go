package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Writer persists run artifacts as JSON under a per-run directory.
type Writer struct {
	baseDir string
}

func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Write stores the result bundle plus the larger sub-documents as separate
// files for easier downstream loading. It returns the run directory.
func (w *Writer) Write(res *Result) (string, error) {
	dir := filepath.Join(w.baseDir, res.StartedAt.Format("2006-01-02"), res.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}

	files := map[string]any{
		"result.json":       res,
		"equity_curve.json": res.Equity,
		"trades.json":       res.Trades,
		"performance.json":  res.Performance,
	}
	for name, doc := range files {
		if err := writeJSON(filepath.Join(dir, name), doc); err != nil {
			return "", err
		}
	}

	log.Info().Str("run_id", res.RunID).Str("dir", dir).Msg("artifacts written")
	return dir, nil
}

func writeJSON(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
