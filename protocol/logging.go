// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/logging.go
// Summary: Package debug logger, silent unless verbose logging is enabled.

package protocol

import (
	"io"
	"log"
	"os"
)

var debugLog = log.New(io.Discard, "protocol: ", log.LstdFlags)

// SetVerboseLogging toggles per-line ingestion diagnostics.
// When disabled (default), debug output is discarded.
func SetVerboseLogging(enable bool) {
	if enable {
		debugLog.SetOutput(os.Stderr)
	} else {
		debugLog.SetOutput(io.Discard)
	}
}
