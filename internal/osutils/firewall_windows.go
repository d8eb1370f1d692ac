//go:build windows

package osutils

import (
	"fmt"
	"os/exec"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// IsAdmin checks if the current process has administrative privileges
func IsAdmin() bool {
	var token windows.Token
	h, _ := windows.GetCurrentProcess()
	err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token)
	if err != nil {
		return false
	}
	defer token.Close()

	var sid *windows.SID
	err = windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := token.IsMember(sid)
	if err != nil {
		return false
	}
	return member
}

// EnsureFirewallRule makes sure an inbound allow rule exists for the receive
// port. Without admin rights the rule is applied through a UAC prompt.
func EnsureFirewallRule(port int, transport string) error {
	log.Printf("Firewall: checking rule '%s' for %s port %d", FirewallRuleName, transport, port)

	out, err := exec.Command("netsh", "advfirewall", "firewall", "show", "rule", "name="+FirewallRuleName).CombinedOutput()
	if err == nil && ruleMatches(string(out), port, transport) {
		log.Printf("Firewall: rule '%s' already allows %s port %d", FirewallRuleName, transport, port)
		return nil
	}

	script := ruleScript(port, transport)
	if IsAdmin() {
		cmd := exec.Command("powershell", "-NoProfile", "-Command", script)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("create firewall rule: %w (output: %s)", err, out)
		}
		log.Printf("Firewall: rule applied for %s port %d", transport, port)
		return nil
	}

	log.Warn("Firewall: process is not elevated, requesting UAC elevation")
	verb, _ := syscall.UTF16PtrFromString("runas")
	exe, _ := syscall.UTF16PtrFromString("powershell.exe")
	args, _ := syscall.UTF16PtrFromString(fmt.Sprintf("-NoProfile -WindowStyle Hidden -Command \"%s\"", script))
	if err := windows.ShellExecute(0, verb, exe, args, nil, int32(windows.SW_HIDE)); err != nil {
		return fmt.Errorf("launch elevated powershell: %w", err)
	}
	return nil
}
