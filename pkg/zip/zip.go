package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Entry is one file to include in an archive, either inline bytes or a
// path on disk. Path wins when both are set.
type Entry struct {
	Name string
	Data []byte
	Path string
}

// Archive packs the entries into a single zip. Entries whose Path does not
// exist are skipped so optional artifacts (music, raw cut) never fail the
// whole download.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	for _, e := range entries {
		data := e.Data
		if e.Path != "" {
			b, err := os.ReadFile(e.Path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, fmt.Errorf("zip: read %s: %w", e.Path, err)
			}
			data = b
		}
		if len(data) == 0 {
			continue
		}
		name := e.Name
		if name == "" {
			name = filepath.Base(e.Path)
		}
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
