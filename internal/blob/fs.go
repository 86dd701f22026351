package blob

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FSStore writes objects under a base directory and serves them from a
// base URL, typically /media/.
type FSStore struct {
	dir     string
	baseURL string
}

func NewFSStore(dir, baseURL string) *FSStore {
	return &FSStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *FSStore) Put(key, contentType string, data []byte) (string, error) {
	if err := ValidateImage(contentType, len(data)); err != nil {
		return "", err
	}
	clean := path.Clean("/" + key)
	target := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write media object: %w", err)
	}
	return s.baseURL + clean, nil
}

// Dir returns the root directory, for wiring the /media/ file server.
func (s *FSStore) Dir() string {
	return s.dir
}
