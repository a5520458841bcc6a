// SPDX-License-Identifier: MIT

package daemon

import "errors"

var (
	// ErrMissingRuntime is returned by NewApp callers that skipped Build.
	ErrMissingRuntime = errors.New("daemon: runtime is required")
)
