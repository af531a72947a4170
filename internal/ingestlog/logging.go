// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/ingestlog/logging.go
// Summary: Package debug logger, silent unless verbose logging is enabled.

package ingestlog

import (
	"io"
	"log"
	"os"
)

var debugLog = log.New(io.Discard, "ingestlog: ", log.LstdFlags)

// SetVerboseLogging toggles journal write diagnostics.
func SetVerboseLogging(enable bool) {
	if enable {
		debugLog.SetOutput(os.Stderr)
	} else {
		debugLog.SetOutput(io.Discard)
	}
}
