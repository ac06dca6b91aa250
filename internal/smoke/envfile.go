package smoke

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnvOutcome describes what EnsureEnvFile did.
type EnvOutcome int

const (
	// EnvPresent means the environment file already existed.
	EnvPresent EnvOutcome = iota
	// EnvCreated means the file was copied from the template.
	EnvCreated
	// EnvNoTemplate means neither file exists; nothing was created.
	EnvNoTemplate
)

func (o EnvOutcome) String() string {
	switch o {
	case EnvPresent:
		return "present"
	case EnvCreated:
		return "created"
	case EnvNoTemplate:
		return "no template"
	default:
		return "unknown"
	}
}

// EnsureEnvFile creates envPath from templatePath when envPath is absent.
// A missing template is not an error. An existing envPath is never touched.
func EnsureEnvFile(envPath, templatePath string) (EnvOutcome, error) {
	if _, err := os.Stat(envPath); err == nil {
		return EnvPresent, nil
	} else if !os.IsNotExist(err) {
		return EnvPresent, fmt.Errorf("failed to stat %s: %w", filepath.Base(envPath), err)
	}

	if _, err := os.Stat(templatePath); err != nil {
		if os.IsNotExist(err) {
			return EnvNoTemplate, nil
		}
		return EnvNoTemplate, fmt.Errorf("failed to stat %s: %w", filepath.Base(templatePath), err)
	}

	// A dangling symlink counts as absent; the copy creates its target.
	followLink := false
	if info, err := os.Lstat(envPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		followLink = true
	}

	if err := copyFile(templatePath, envPath, followLink); err != nil {
		return EnvNoTemplate, fmt.Errorf("failed to create %s from %s: %w", filepath.Base(envPath), filepath.Base(templatePath), err)
	}
	return EnvCreated, nil
}

func copyFile(src, dst string, followLink bool) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if followLink {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(dst, flags, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		if !followLink {
			os.Remove(dst)
		}
		return err
	}
	return out.Close()
}
