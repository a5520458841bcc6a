// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"strings"

	"github.com/anirelay/anirelay/internal/log"
)

// StartupCheck runs every registered checker once before the server starts
// listening. Unhealthy components abort startup; degraded ones are logged.
func (m *Manager) StartupCheck(ctx context.Context) error {
	logger := log.WithComponent("startup-check")
	status, checks := m.runChecks(ctx)

	var failed []string
	for name, res := range checks {
		evt := logger.Info()
		switch res.Status {
		case StatusUnhealthy:
			evt = logger.Error()
			failed = append(failed, name)
		case StatusDegraded:
			evt = logger.Warn()
		}
		evt.Str("check", name).Str("status", string(res.Status)).Str("error", res.Error).Msg("startup check")
	}

	if status == StatusUnhealthy {
		return fmt.Errorf("startup checks failed: %s", strings.Join(failed, ", "))
	}
	return nil
}
