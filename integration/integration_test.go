//go:build integration

package integration

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	rierunner "github.com/wagiedev/rie-runner-go"
)

// echoBootstrap is a custom runtime that answers every invocation with its event.
const echoBootstrap = `#!/bin/sh
set -eu
while true; do
  HEADERS="$(mktemp)"
  EVENT=$(curl -sS -LD "$HEADERS" "http://${AWS_LAMBDA_RUNTIME_API}/2018-06-01/runtime/invocation/next")
  REQUEST_ID=$(grep -Fi Lambda-Runtime-Aws-Request-Id "$HEADERS" | tr -d '[:space:]' | cut -d: -f2)
  rm -f "$HEADERS"
  curl -sS -X POST "http://${AWS_LAMBDA_RUNTIME_API}/2018-06-01/runtime/invocation/${REQUEST_ID}/response" -d "$EVENT" >/dev/null
done
`

// skipIfEmulatorNotInstalled skips the test if the error indicates aws-lambda-rie is not found.
func skipIfEmulatorNotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*rierunner.BinaryNotFoundError](err); ok {
		t.Skip("aws-lambda-rie not installed")
	}
}

// echoHandler writes the echo bootstrap into a temporary handler directory.
func echoHandler(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("curl"); err != nil {
		t.Skip("curl not installed")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bootstrap"), []byte(echoBootstrap), 0o755))

	return dir
}
