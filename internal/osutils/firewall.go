// Package osutils holds the small bits of OS plumbing the receiver needs
// before it can accept events from the network.
package osutils

import (
	"fmt"
	"strings"
)

// FirewallRuleName is the display name of the inbound rule for the receive port.
const FirewallRuleName = "sharemouse receiver"

// Transport returns the firewall protocol for a transport name. WebSocket
// traffic rides on TCP.
func Transport(protocol string) (string, error) {
	switch strings.ToLower(protocol) {
	case "udp":
		return "UDP", nil
	case "tcp", "websocket", "ws":
		return "TCP", nil
	default:
		return "", fmt.Errorf("no firewall transport for %q", protocol)
	}
}

func ruleScript(port int, transport string) string {
	return fmt.Sprintf(
		"Remove-NetFirewallRule -DisplayName '%s' -ErrorAction SilentlyContinue; New-NetFirewallRule -DisplayName '%s' -Direction Inbound -LocalPort %d -Protocol %s -Action Allow -Profile Any",
		FirewallRuleName, FirewallRuleName, port, transport,
	)
}

// ruleMatches reports whether netsh output describes an allow rule for the
// given port and transport.
func ruleMatches(output string, port int, transport string) bool {
	if !strings.Contains(output, FirewallRuleName) || !strings.Contains(output, "Allow") {
		return false
	}
	var portOK, protoOK bool
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "LocalPort":
			portOK = value == fmt.Sprint(port)
		case "Protocol":
			protoOK = strings.EqualFold(value, transport)
		}
	}
	return portOK && protoOK
}
