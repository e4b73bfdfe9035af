// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package assistant

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrCLINotFound is returned by FindCLI when no candidate path resolves
// to an executable.
var ErrCLINotFound = errors.New("assistant: CLI binary not found")

// cliBinaryName is the executable name the assistant CLI ships under.
const cliBinaryName = "claude"

// FindCLI locates the assistant CLI binary. override, when non-empty,
// short-circuits discovery (the agency.hjson assistant.cli_path setting).
// Otherwise it tries $PATH first, then a fixed list of install locations
// npm/homebrew/nvm commonly place the binary under.
func FindCLI(override string) (string, error) {
	if override != "" {
		if st, err := os.Stat(override); err == nil && !st.IsDir() {
			return override, nil
		}
		return "", fmt.Errorf("%w: configured path %q is not an executable file", ErrCLINotFound, override)
	}

	if path, err := exec.LookPath(cliBinaryName); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	candidates := []string{
		"/opt/homebrew/bin/" + cliBinaryName,
		"/usr/local/bin/" + cliBinaryName,
	}
	if home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".npm-global", "bin", cliBinaryName),
			filepath.Join(home, "node_modules", ".bin", cliBinaryName),
		)
		nvmGlob := filepath.Join(home, ".nvm", "versions", "node", "*", "bin", cliBinaryName)
		if matches, _ := filepath.Glob(nvmGlob); len(matches) > 0 {
			candidates = append(candidates, matches...)
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, "node_modules", ".bin", cliBinaryName))
	}

	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			return c, nil
		}
	}

	return "", ErrCLINotFound
}
