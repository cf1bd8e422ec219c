package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"loanflow/internal/domain/document"
)

// LocalStore keeps documents under a directory served at baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

var _ document.BlobStore = (*LocalStore)(nil)

func NewLocalStore(root, publicBaseURL string) *LocalStore {
	return &LocalStore{root: filepath.Clean(root), baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// DeleteObject removes the file behind publicURL. A file that is already gone
// is not an error.
func (s *LocalStore) DeleteObject(_ context.Context, publicURL string) error {
	p, err := s.pathFor(publicURL)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}

func (s *LocalStore) pathFor(publicURL string) (string, error) {
	rel := ""
	if s.baseURL != "" && strings.HasPrefix(publicURL, s.baseURL+"/") {
		rel = strings.TrimPrefix(publicURL, s.baseURL+"/")
	} else {
		u, err := url.Parse(publicURL)
		if err != nil {
			return "", fmt.Errorf("parse document url %q: %w", publicURL, err)
		}
		rel = strings.TrimPrefix(u.Path, "/")
	}
	rel, err := url.PathUnescape(rel)
	if err != nil {
		return "", fmt.Errorf("unescape document url %q: %w", publicURL, err)
	}
	p := filepath.Join(s.root, filepath.FromSlash(rel))
	if p == s.root || !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("document url %q escapes %s", publicURL, s.root)
	}
	return p, nil
}
