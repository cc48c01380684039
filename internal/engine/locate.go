package engine

import (
	"context"
	"fmt"
	"strings"
)

// LookPathFunc matches the signature of exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Locate resolves the soda binary in PATH. Absolute or relative paths
// containing a separator are returned as-is so configs can pin a
// specific build.
func Locate(binary string, lookPath LookPathFunc) (string, error) {
	if binary == "" {
		binary = "soda"
	}
	if strings.ContainsRune(binary, '/') {
		return binary, nil
	}

	path, err := lookPath(binary)
	if err != nil {
		return "", fmt.Errorf("soda binary %q not found in PATH: %w", binary, err)
	}
	return path, nil
}

// ProbeVersion asks the binary for its version string. Used by doctor;
// failures are diagnostic, not fatal.
func ProbeVersion(ctx context.Context, binary string, execFn ExecFunc) (string, error) {
	out, err := execFn(ctx, binary, "--version")
	if err != nil {
		return "", fmt.Errorf("probe soda version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
