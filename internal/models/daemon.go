package models

import "time"

// DaemonInfo describes a running bsdeskd instance. It is persisted to
// ~/.bsdesk/daemon.yaml so the CLI and second launches can find it.
type DaemonInfo struct {
	Host      string    `yaml:"host"`
	Port      int       `yaml:"port"`
	PID       int       `yaml:"pid"`
	StartedAt time.Time `yaml:"started_at"`
}

// NewDaemonInfo creates daemon info for the current process.
func NewDaemonInfo(host string, port, pid int) *DaemonInfo {
	return &DaemonInfo{
		Host:      host,
		Port:      port,
		PID:       pid,
		StartedAt: time.Now(),
	}
}
