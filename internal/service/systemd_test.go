package service

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateServiceFile(t *testing.T) {
	content, err := GenerateServiceFile(ServiceConfig{
		ExecPath:   "/usr/local/bin/nodered-backups",
		ConfigPath: "/etc/nodered-backups/config.yaml",
		User:       "nodered",
		WorkingDir: "/etc/nodered-backups",
		BackupRoot: "/home/kimbo/nodered-backups",
		DataDir:    "/var/lib/nodered-backups",
	})
	if err != nil {
		t.Fatalf("GenerateServiceFile returned error: %v", err)
	}

	for _, want := range []string{
		"ExecStart=/usr/local/bin/nodered-backups -config /etc/nodered-backups/config.yaml",
		"User=nodered",
		"ReadWritePaths=/home/kimbo/nodered-backups /var/lib/nodered-backups",
		"WantedBy=multi-user.target",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("expected service file to contain %q\n%s", want, content)
		}
	}
}

func TestGenerateServiceFile_RelativePaths(t *testing.T) {
	_, err := GenerateServiceFile(ServiceConfig{
		ExecPath:   "/usr/local/bin/nodered-backups",
		ConfigPath: "config.yaml",
		BackupRoot: "/srv/backups",
		DataDir:    "/var/lib/nodered-backups",
	})
	if err == nil {
		t.Error("expected error for relative config path")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := DefaultConfig("config.yaml", "./nodered-backups", "./data/backups.db")
	if err != nil {
		t.Fatalf("DefaultConfig returned error: %v", err)
	}

	for name, path := range map[string]string{
		"exec":   cfg.ExecPath,
		"config": cfg.ConfigPath,
		"backup": cfg.BackupRoot,
		"data":   cfg.DataDir,
	} {
		if !filepath.IsAbs(path) {
			t.Errorf("expected %s path to be absolute, got %q", name, path)
		}
	}
	if filepath.Base(cfg.DataDir) != "data" {
		t.Errorf("expected data dir to be the database directory, got %q", cfg.DataDir)
	}
	if _, err := GenerateServiceFile(cfg); err != nil {
		t.Errorf("expected default config to render, got %v", err)
	}
}
