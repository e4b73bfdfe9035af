// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package assistant

import (
	"encoding/json"

	"github.com/amirdauti/virtualagency/internal/bus"
)

// frame is the subset of a streamed NDJSON output line the parser cares
// about. Unknown fields are ignored; a line that fails to parse as JSON
// at all only produces the raw-output forward.
type frame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// statusForType maps a frame's type field to the status transition it
// implies. The second return value is false when the type carries no
// status transition.
func statusForType(t string) (bus.Status, bool) {
	switch t {
	case "assistant", "content_block_delta", "content_block_start":
		return bus.StatusWorking, true
	case "result":
		return bus.StatusIdle, true
	case "message_stop", "content_block_stop", "message_end":
		return bus.StatusIdle, true
	case "error":
		return bus.StatusError, true
	default:
		return "", false
	}
}

// parseLine attempts to parse line as a stream frame. ok is false when
// the line isn't a JSON object at all, in which case the caller does
// nothing further with it beyond the unconditional raw-output forward.
func parseLine(line []byte) (f frame, ok bool) {
	if err := json.Unmarshal(line, &f); err != nil {
		return frame{}, false
	}
	return f, true
}
