package resolver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rodrigopv/streamfetch/internal/locator"
)

// FileProvider opens file:// and relative locators from the local
// filesystem. Relative locators resolve against Root, or the working
// directory when Root is empty.
type FileProvider struct {
	Root string
}

// OpenStream opens the file behind loc. Filesystem errors, including a
// missing file, are returned unchanged.
func (p *FileProvider) OpenStream(ctx context.Context, loc locator.Locator) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := p.path(loc)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (p *FileProvider) path(loc locator.Locator) (string, error) {
	switch {
	case loc.IsRelative():
		rel := filepath.Join(loc.Segments()...)
		if !filepath.IsLocal(rel) {
			return "", fmt.Errorf("resolver: %s escapes the working directory", loc)
		}
		return filepath.Join(p.Root, rel), nil
	case loc.Scheme() == "file":
		if loc.Authority() != "" && loc.Authority() != "localhost" {
			return "", fmt.Errorf("resolver: remote file host %q not supported", loc.Authority())
		}
		return string(filepath.Separator) + filepath.Join(loc.Segments()...), nil
	default:
		return "", fmt.Errorf("resolver: %s is not a file locator", loc)
	}
}
