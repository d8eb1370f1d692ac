//go:build !windows

package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"
)

const macLaunchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{html .Entry.Executable}}</string>
{{- range .Entry.Args}}
        <string>{{html .}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`

const xdgDesktopEntry = `[Desktop Entry]
Type=Application
Name=sharemouse
Comment=Share one mouse between two machines
Exec={{.Entry.CommandLine}}
X-GNOME-Autostart-enabled=true
`

// Enable writes the login item for the current platform.
func Enable(e Entry) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return enableIn(runtime.GOOS, home, e)
}

// Disable removes the login item. A missing item is not an error.
func Disable() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return disableIn(runtime.GOOS, home)
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	return isEnabledIn(runtime.GOOS, home)
}

// itemPath returns the login item file and its template for goos.
func itemPath(goos, home string) (string, string, error) {
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "LaunchAgents", Label+".plist"), macLaunchAgentPlist, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return filepath.Join(home, ".config", "autostart", "sharemouse.desktop"), xdgDesktopEntry, nil
	default:
		return "", "", fmt.Errorf("unsupported platform: %s", goos)
	}
}

func enableIn(goos, home string, e Entry) error {
	path, text, err := itemPath(goos, home)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpl, err := template.New("autostart").Parse(text)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, struct {
		Label string
		Entry Entry
	}{Label, e})
}

func disableIn(goos, home string) error {
	path, _, err := itemPath(goos, home)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func isEnabledIn(goos, home string) bool {
	path, _, err := itemPath(goos, home)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
