package rie

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/wagiedev/rie-runner-go/internal/errors"
)

const (
	// BinaryName is the emulator executable looked up on PATH.
	BinaryName = "aws-lambda-rie"

	// PathEnvVar names an environment variable holding an explicit binary path.
	PathEnvVar = "AWS_LAMBDA_RIE_PATH"
)

// Config holds configuration for binary discovery.
type Config struct {
	// BinaryPath is an explicit emulator path that skips all searching.
	BinaryPath string

	// Logger is an optional logger for discovery operations.
	// If nil, a default no-op logger is used.
	Logger *slog.Logger
}

// Discoverer locates the emulator binary.
type Discoverer interface {
	// Discover returns the path of the emulator binary or a
	// *errors.BinaryNotFoundError.
	Discover() (string, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new binary discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &discoverer{
		cfg: cfg,
		log: log,
	}
}

// Discover locates the emulator binary.
func (d *discoverer) Discover() (string, error) {
	// If explicit path provided, use it and only it
	if d.cfg.BinaryPath != "" {
		d.log.Debug("Using explicit emulator path", "binary", d.cfg.BinaryPath)

		if isFile(d.cfg.BinaryPath) {
			return d.cfg.BinaryPath, nil
		}

		return "", &errors.BinaryNotFoundError{SearchedPaths: []string{d.cfg.BinaryPath}}
	}

	searchedPaths := make([]string, 0, 5)

	if envPath := os.Getenv(PathEnvVar); envPath != "" {
		searchedPaths = append(searchedPaths, envPath)

		if isFile(envPath) {
			d.log.Debug("Found emulator via environment", "binary", envPath, "env", PathEnvVar)

			return envPath, nil
		}

		d.log.Debug("Emulator path from environment not found", "binary", envPath, "env", PathEnvVar)
	}

	if path, err := exec.LookPath(BinaryName); err == nil {
		d.log.Debug("Found emulator in PATH", "binary", path)

		return path, nil
	}

	searchedPaths = append(searchedPaths, "$PATH")

	commonPaths := []string{
		filepath.Join("/usr/local/bin", BinaryName),
		filepath.Join("/usr/bin", BinaryName),
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		commonPaths = append(commonPaths, filepath.Join(homeDir, ".aws-lambda-rie", BinaryName))
	}

	for _, path := range commonPaths {
		searchedPaths = append(searchedPaths, path)

		if isFile(path) {
			d.log.Debug("Found emulator at common path", "binary", path)

			return path, nil
		}
	}

	d.log.Warn("Emulator binary not found in any searched paths", "searched_paths", searchedPaths)

	return "", &errors.BinaryNotFoundError{SearchedPaths: searchedPaths}
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}
