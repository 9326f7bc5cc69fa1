// Package reference locates, downloads and reads the 2-bit reference
// sequence file.
package reference

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Errors returned by reference asset operations.
var (
	ErrAssetMissing        = errors.New("reference asset missing")
	ErrSequenceUnavailable = errors.New("reference sequence unavailable")
	ErrOutOfRange          = errors.New("sequence range out of bounds")
	ErrUnsupportedMode     = errors.New("unsupported download mode")
)

// Asset names inside a data directory.
const (
	Assembly    = "hg38"
	TwoBitFile  = Assembly + ".2bit"
	DefaultMode = "http"
	ApproxSize  = "~800MB"
	urlTemplate = "%s://hgdownload.cse.ucsc.edu/goldenPath/%s/bigZips/%s.2bit"
	dataDirName = ".hg38genome"
)

// DefaultDir returns the default data directory (~/.hg38genome).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, dataDirName)
}

// Resolve returns the path of name inside dir. It fails with ErrAssetMissing
// when the file does not exist.
func Resolve(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAssetMissing, path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrAssetMissing, path)
	}
	return path, nil
}

// URL returns the UCSC download URL of an assembly's 2-bit file. Mode is the
// protocol, "http" or "https".
func URL(mode, assembly string) (string, error) {
	mode = strings.ToLower(mode)
	if mode == "" {
		mode = DefaultMode
	}
	if mode != "http" && mode != "https" {
		return "", fmt.Errorf("%w: %q (want http or https)", ErrUnsupportedMode, mode)
	}
	return fmt.Sprintf(urlTemplate, mode, assembly, assembly), nil
}
