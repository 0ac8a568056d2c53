// Package service installs the server as a systemd unit.
package service

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"
)

const (
	serviceName     = "nodered-backups"
	serviceFilePath = "/etc/systemd/system/nodered-backups.service"
)

// ServiceStatus represents the status of the systemd service.
type ServiceStatus struct {
	IsRunning   bool   `json:"is_running"`
	IsEnabled   bool   `json:"is_enabled"`
	IsInstalled bool   `json:"is_installed"`
	ActiveState string `json:"active_state"`
}

// ServiceConfig holds configuration for service installation.
type ServiceConfig struct {
	ExecPath   string
	ConfigPath string
	User       string
	WorkingDir string
	// BackupRoot and DataDir must stay writable: deletes and retention
	// remove files from the former, sessions and audit logs live in the latter.
	BackupRoot string
	DataDir    string
}

const serviceTemplate = `[Unit]
Description=Node-RED Backups - backup browser
After=network.target

[Service]
Type=simple
User={{.User}}
Group={{.User}}
WorkingDirectory={{.WorkingDir}}
ExecStart={{.ExecPath}} -config {{.ConfigPath}}
Restart=always
RestartSec=5
StandardOutput=journal
StandardError=journal

NoNewPrivileges=true
ProtectSystem=strict
ProtectHome=read-only
ReadWritePaths={{.BackupRoot}} {{.DataDir}}
PrivateTmp=true

[Install]
WantedBy=multi-user.target
`

var errUnsupported = errors.New("systemd services are only supported on Linux with systemctl")

func checkSystemd() error {
	if runtime.GOOS != "linux" {
		return errUnsupported
	}
	if _, err := exec.LookPath("systemctl"); err != nil {
		return errUnsupported
	}
	return nil
}

// GenerateServiceFile generates the systemd service file content.
func GenerateServiceFile(cfg ServiceConfig) (string, error) {
	for name, value := range map[string]string{
		"exec path":   cfg.ExecPath,
		"config path": cfg.ConfigPath,
		"backup root": cfg.BackupRoot,
		"data dir":    cfg.DataDir,
	} {
		if !filepath.IsAbs(value) {
			return "", fmt.Errorf("%s must be absolute, got %q", name, value)
		}
	}

	tmpl, err := template.New("service").Parse(serviceTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse service template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return "", fmt.Errorf("failed to execute service template: %w", err)
	}

	return buf.String(), nil
}

// Install writes the unit file, then enables and starts the service.
func Install(cfg ServiceConfig) error {
	if err := checkSystemd(); err != nil {
		return err
	}
	if os.Geteuid() != 0 {
		return fmt.Errorf("root privileges required for service installation")
	}

	content, err := GenerateServiceFile(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(serviceFilePath, []byte(content), 0644); err != nil { // #nosec G306 - unit files are world-readable
		return fmt.Errorf("failed to write service file: %w", err)
	}

	for _, args := range [][]string{{"daemon-reload"}, {"enable", serviceName}, {"start", serviceName}} {
		if err := runSystemctl(args...); err != nil {
			return fmt.Errorf("systemctl %s: %w", args[0], err)
		}
	}
	return nil
}

// Uninstall stops and removes the systemd service.
func Uninstall() error {
	if err := checkSystemd(); err != nil {
		return err
	}
	if os.Geteuid() != 0 {
		return fmt.Errorf("root privileges required for service uninstallation")
	}

	// not running or not enabled is fine
	_ = runSystemctl("stop", serviceName)
	_ = runSystemctl("disable", serviceName)

	if err := os.Remove(serviceFilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove service file: %w", err)
	}

	return runSystemctl("daemon-reload")
}

// Status returns the current service status.
func Status() (*ServiceStatus, error) {
	status := &ServiceStatus{}
	if checkSystemd() != nil {
		return status, nil
	}

	if _, err := os.Stat(serviceFilePath); err == nil {
		status.IsInstalled = true
	}

	if out, err := exec.Command("systemctl", "show", serviceName, "--property=ActiveState", "--value").Output(); err == nil {
		status.ActiveState = strings.TrimSpace(string(out))
		status.IsRunning = status.ActiveState == "active"
	}

	if out, err := exec.Command("systemctl", "is-enabled", serviceName).Output(); err == nil {
		status.IsEnabled = strings.TrimSpace(string(out)) == "enabled"
	}

	return status, nil
}

// DefaultConfig derives a service configuration from the running binary
// and the resolved server settings.
func DefaultConfig(configPath, backupRoot, databasePath string) (ServiceConfig, error) {
	execPath, err := os.Executable()
	if err != nil {
		return ServiceConfig{}, err
	}
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}

	configPath, err = filepath.Abs(configPath)
	if err != nil {
		return ServiceConfig{}, err
	}
	backupRoot, err = filepath.Abs(backupRoot)
	if err != nil {
		return ServiceConfig{}, err
	}
	dataDir, err := filepath.Abs(filepath.Dir(databasePath))
	if err != nil {
		return ServiceConfig{}, err
	}

	return ServiceConfig{
		ExecPath:   execPath,
		ConfigPath: configPath,
		User:       "root",
		WorkingDir: filepath.Dir(configPath),
		BackupRoot: backupRoot,
		DataDir:    dataDir,
	}, nil
}

func runSystemctl(args ...string) error {
	output, err := exec.Command("systemctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
