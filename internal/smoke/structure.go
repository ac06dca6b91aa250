package smoke

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/moasq/distcheck/internal/terminal"
)

// CheckStructure verifies each required path exists under root, in order,
// and stops at the first missing one.
func CheckStructure(root string, required []string) error {
	for _, rel := range required {
		if !pathExists(root, rel) {
			terminal.Error(fmt.Sprintf("Missing: %s", rel))
			return fmt.Errorf("%w: %s", ErrMissingFile, rel)
		}
		terminal.Success(fmt.Sprintf("Found: %s", rel))
	}
	return nil
}

// MissingFiles returns every required path that does not exist under root,
// in list order. It narrates nothing.
func MissingFiles(root string, required []string) []string {
	var missing []string
	for _, rel := range required {
		if !pathExists(root, rel) {
			missing = append(missing, rel)
		}
	}
	return missing
}

// CheckStructureAll reports every missing path instead of stopping at the
// first one.
func CheckStructureAll(root string, required []string) error {
	missing := MissingFiles(root, required)
	for _, rel := range required {
		if slices.Contains(missing, rel) {
			terminal.Error(fmt.Sprintf("Missing: %s", rel))
		} else {
			terminal.Success(fmt.Sprintf("Found: %s", rel))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFile, strings.Join(missing, ", "))
	}
	return nil
}

func pathExists(root, rel string) bool {
	p := rel
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, filepath.FromSlash(rel))
	}
	_, err := os.Stat(p)
	return err == nil
}
