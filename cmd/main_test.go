package main

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSetupLogging(t *testing.T) {
	if err := setupLogging("debug"); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if log.GetLevel() != log.DebugLevel {
		t.Errorf("Expected debug level, got %s", log.GetLevel())
	}
	if err := setupLogging("chatty"); err == nil {
		t.Error("Expected an error for an unknown level")
	}
	setupLogging("info")
}

func TestTemplateCommandWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharemouse.yaml")
	rootCmd.SetArgs([]string{"template", "--config", path, "--log-level", "warn"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected %s to exist, got %v", path, err)
	}

	// A second run refuses to overwrite.
	rootCmd.SetArgs([]string{"template", "--config", path})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected an error when the file exists")
	}
}

func TestAutostartArgs(t *testing.T) {
	if got := autostartArgs("receive", ""); len(got) != 1 || got[0] != "receive" {
		t.Errorf("Expected [receive], got %v", got)
	}
	got := autostartArgs("send", "conf.yaml")
	if len(got) != 3 || got[0] != "send" || got[1] != "--config" {
		t.Fatalf("Expected [send --config <abs>], got %v", got)
	}
	if !filepath.IsAbs(got[2]) {
		t.Errorf("Expected an absolute config path, got %s", got[2])
	}
}

func TestAutostartEnableRejectsUnknownRole(t *testing.T) {
	rootCmd.SetArgs([]string{"autostart", "enable", "relay"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected an error for an unknown role")
	}
}
