//go:build !windows

package osutils

import (
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// IsAdmin reports whether the process runs as root.
func IsAdmin() bool {
	return os.Geteuid() == 0
}

// EnsureFirewallRule only manages rules on Windows. Elsewhere it logs a hint.
func EnsureFirewallRule(port int, transport string) error {
	log.Infof("Firewall: automatic rule management is only supported on Windows, make sure %s port %d is open on %s",
		transport, port, runtime.GOOS)
	return nil
}
