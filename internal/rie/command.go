package rie

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// BootstrapName is the entry point the emulator launches inside the handler directory.
const BootstrapName = "bootstrap"

// BootstrapPath resolves the bootstrap executable inside handlerPath.
// Relative handler paths are resolved against the working directory.
func BootstrapPath(handlerPath string) (string, error) {
	path, err := filepath.Abs(filepath.Join(handlerPath, BootstrapName))
	if err != nil {
		return "", fmt.Errorf("resolve bootstrap for %q: %w", handlerPath, err)
	}

	return path, nil
}

// BuildArgs constructs the emulator command arguments.
func BuildArgs(bootstrap string, publicPort, internalPort int) []string {
	return []string{
		bootstrap,
		"--listen", "0.0.0.0:" + strconv.Itoa(publicPort),
		"--rapid-port", strconv.Itoa(internalPort),
	}
}

// BuildEnvironment merges the current process environment with overrides.
// Overrides win on key collision. The result is sorted and holds each key once.
func BuildEnvironment(overrides map[string]string) []string {
	merged := make(map[string]string, len(overrides)+64)

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}

		merged[key] = value
	}

	for key, value := range overrides {
		merged[key] = value
	}

	env := make([]string, 0, len(merged))
	for key, value := range merged {
		env = append(env, key+"="+value)
	}

	slices.Sort(env)

	return env
}
