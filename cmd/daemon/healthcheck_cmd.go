// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anirelay/anirelay/internal/platform/httpx"
)

// runHealthcheckCLI probes a running relay; it backs container health checks.
func runHealthcheckCLI(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	mode := fs.String("mode", "ready", "healthcheck mode: ready (default) or live")
	port := fs.Int("port", 3000, "API port to check")
	base := fs.String("url", "", "base URL to check (overrides --port)")
	timeout := fs.Duration("timeout", 5*time.Second, "check timeout")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := "/health"
	if *mode == "ready" {
		path = "/readyz"
	}

	target := fmt.Sprintf("http://localhost:%d%s", *port, path)
	if *base != "" {
		target = strings.TrimRight(*base, "/") + path
	}

	resp, err := httpx.NewClient(*timeout).Get(target)
	if err != nil {
		fmt.Fprintf(stderr, "Healthcheck failed (network): %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "Healthcheck failed (status): %s\n", resp.Status)
		return 1
	}

	fmt.Fprintf(stdout, "Healthcheck successful (%s)\n", *mode)
	return 0
}
