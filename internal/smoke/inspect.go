package smoke

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// OutputReport is what InspectOutput found in the build output directory.
type OutputReport struct {
	Dir            string `json:"dir"`
	Entries        int    `json:"entries"`
	EntryFile      string `json:"entry_file"`
	EntryFound     bool   `json:"entry_found"`
	PolicyConflict bool   `json:"policy_conflict"`
}

// InspectOutput counts every entry under dir and scans entryFile (relative to
// dir) for an embedded security policy. A missing dir is an error; a
// policy conflict is only reported.
func InspectOutput(dir, entryFile, policyMarker, tagMarker string) (*OutputReport, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingOutput, dir)
		}
		return nil, fmt.Errorf("failed to stat output directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMissingOutput, dir)
	}

	count, err := CountEntries(dir)
	if err != nil {
		return nil, err
	}

	report := &OutputReport{Dir: dir, Entries: count, EntryFile: entryFile}

	entryPath := filepath.Join(dir, filepath.FromSlash(entryFile))
	content, err := os.ReadFile(entryPath)
	switch {
	case err == nil:
		report.EntryFound = true
		report.PolicyConflict = HasEmbeddedPolicy(string(content), policyMarker, tagMarker)
	case os.IsNotExist(err):
		// no entry file, nothing to scan
	default:
		return nil, fmt.Errorf("failed to read %s: %w", entryFile, err)
	}

	return report, nil
}

// CountEntries returns the number of files and directories beneath dir,
// not counting dir itself.
func CountEntries(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return count, nil
}

// HasEmbeddedPolicy reports whether html mentions both the policy marker and
// the tag marker. Empty markers never match.
func HasEmbeddedPolicy(html, policyMarker, tagMarker string) bool {
	if policyMarker == "" || tagMarker == "" {
		return false
	}
	return strings.Contains(html, policyMarker) && strings.Contains(html, tagMarker)
}
