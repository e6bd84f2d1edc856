package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vodscribe/vodscribe/internal/subtitle"
)

// Output file names, written as siblings in the job's output directory.
const (
	FileSRT     = "transcript.srt"
	FileWordSRT = "transcript.word.srt"
	FileText    = "transcript.txt"
	FileLLMSRT  = "transcript.llmsrt"
	FileRaw     = "raw_responses.json"
)

// WriteBundle renders and persists all transcript representations. It is
// only called after a fully successful job, so a failed run never touches
// existing outputs; re-running with identical input overwrites them with
// byte-identical content.
func WriteBundle(dir string, bundle *Bundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	rawJSON, err := json.MarshalIndent(bundle.Raw, "", "    ")
	if err != nil {
		return fmt.Errorf("encode raw responses: %w", err)
	}

	outputs := map[string]string{
		FileSRT:     subtitle.ComposeSRT(bundle.Segments),
		FileWordSRT: subtitle.ComposeSRT(bundle.Words),
		FileText:    subtitle.PlainText(bundle.Segments),
		FileLLMSRT:  subtitle.LLMSRT(bundle.Segments),
		FileRaw:     string(rawJSON),
	}
	for name, content := range outputs {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
