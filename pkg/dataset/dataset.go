// Package dataset handles the on-disk layout of the training set: gathering
// and validating input image/mask path lists, writing and reading samples
// under the shared four-subdirectory layout, and the run manifest.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNameMismatch reports image and mask path lists that do not correspond
// element-wise by filename stem.
var ErrNameMismatch = errors.New("image and mask file names do not match")

// GatherPaths returns the paths of all direct entries of dir,
// lexicographically sorted by name.
func GatherPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %v", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	return paths, nil
}

// Stem returns the final path segment of path with its extension removed.
// Stems are the join key between an image and its mask.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CheckNames verifies that two sorted path lists correspond element-wise by
// filename stem. A length difference or any stem mismatch is a precondition
// violation: the caller must guarantee that the images and masks
// directories contain exactly corresponding, sort-aligned files.
func CheckNames(imagePaths, maskPaths []string) error {
	if len(imagePaths) != len(maskPaths) {
		return fmt.Errorf("%w: %d images but %d masks", ErrNameMismatch, len(imagePaths), len(maskPaths))
	}

	for i := range imagePaths {
		imageStem := Stem(imagePaths[i])
		maskStem := Stem(maskPaths[i])
		if imageStem != maskStem {
			return fmt.Errorf("%w: entry %d has image %q but mask %q", ErrNameMismatch, i, imageStem, maskStem)
		}
	}

	return nil
}
