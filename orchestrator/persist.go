package orchestrator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func newSessionID() string { return uuid.NewString() }

func mkSessionDir(outputsRoot, sessionID string) (string, error) {
	dir := filepath.Join(outputsRoot, "session_"+unsafeName.ReplaceAllString(sessionID, "_"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(f *os.File, v any) error {
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// persist writes o as <outputs>/session_<id>/<task>.json. A probe repeated
// in the same session gets a numbered file instead of overwriting.
func persist(outputsRoot string, o *ProbeOutcome) (string, error) {
	dir, err := mkSessionDir(outputsRoot, o.SessionID)
	if err != nil {
		return "", err
	}
	base := unsafeName.ReplaceAllString(o.TaskID, "_")
	path := filepath.Join(dir, base+".json")
	for n := 2; ; n++ {
		// O_EXCL claims the name atomically, so concurrent probes never share a file.
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			path = filepath.Join(dir, fmt.Sprintf("%s_%d.json", base, n))
			continue
		}
		if err != nil {
			return "", err
		}
		if err := writeJSON(f, o); err != nil {
			return "", err
		}
		return path, nil
	}
}
