// Package relative splits changed paths at the watch root so rsync
// --relative reproduces only the subtree below it.
package relative

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"syncwatch/internal/model"
)

var ErrOutsideRoot = errors.New("path is outside the watch root")

// Relativize splits path at len(root). root must end in a separator.
// Only the leading occurrence of root is the boundary; the same text
// showing up again deeper in path is part of the relative path.
func Relativize(root, path string) (model.RelativeChange, error) {
	if strings.HasPrefix(path, root) {
		return model.RelativeChange{
			Root:         root,
			RelativePath: path[len(root):],
		}, nil
	}

	// The root directory itself, reported without its trailing separator.
	if path == strings.TrimSuffix(root, string(filepath.Separator)) {
		return model.RelativeChange{Root: path}, nil
	}

	return model.RelativeChange{}, fmt.Errorf("%w: %s not under %s", ErrOutsideRoot, path, root)
}
