// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package assistant

import "github.com/amirdauti/virtualagency/internal/bus"

// Factory creates Sessions bound to a configured CLI override and bus.
// The registry owns the id-keyed map; Factory only knows how to
// construct one session's worth of state. It does not resolve the CLI
// at construction time: a server with no assistant CLI installed must
// still start, since terminal sessions don't need one. Resolution is
// deferred to New, so absence surfaces only when a caller actually
// tries to create an assistant session.
type Factory struct {
	override string
	pub      bus.Bus
}

// NewFactory returns a Factory bound to override, the agency.hjson
// assistant.cli_path setting (if any). It performs no CLI discovery.
func NewFactory(override string, pub bus.Bus) *Factory {
	return &Factory{override: override, pub: pub}
}

// New resolves the assistant CLI and builds a Session for a newly
// created registry entry. Returns ErrCLINotFound if no candidate
// binary resolves, so the caller can surface a dependency-missing
// error rather than spawn a session doomed to fail on first Send.
func (f *Factory) New(id, workDir, displayName string, settings Settings) (*Session, error) {
	cliPath, err := FindCLI(f.override)
	if err != nil {
		return nil, err
	}
	return NewSession(id, workDir, displayName, cliPath, f.pub, settings), nil
}
