// Package profiling collects CPU and memory profiles of the generator's
// own hot loop. File mode takes periodic snapshots and writes them under
// an output directory — the right shape for a batch simulator that runs
// to completion — while HTTP mode serves the standard net/http/pprof
// endpoints for interactive inspection of long runs.
package profiling

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how profiles are collected.
type Mode string

const (
	// ModeFile writes profile snapshots to files at a fixed interval.
	ModeFile Mode = "file"
	// ModeHTTP exposes pprof endpoints over HTTP for on-demand collection.
	ModeHTTP Mode = "http"
)

// ProfileType names one runtime profile.
type ProfileType string

const (
	ProfileCPU       ProfileType = "cpu"
	ProfileHeap      ProfileType = "heap"
	ProfileGoroutine ProfileType = "goroutine"
	ProfileBlock     ProfileType = "block"
	ProfileMutex     ProfileType = "mutex"
	ProfileAllocs    ProfileType = "allocs"
)

// AllProfileTypes returns every supported profile type.
func AllProfileTypes() []ProfileType {
	return []ProfileType{
		ProfileCPU, ProfileHeap, ProfileGoroutine,
		ProfileBlock, ProfileMutex, ProfileAllocs,
	}
}

// DefaultProfileTypes returns the profiles collected when none are named:
// CPU and heap dominate a sampling workload, goroutine catches barrier
// stalls.
func DefaultProfileTypes() []ProfileType {
	return []ProfileType{ProfileCPU, ProfileHeap, ProfileGoroutine}
}

// ParseProfileTypes parses the --pprof-profiles comma-separated list.
func ParseProfileTypes(s string) ([]ProfileType, error) {
	if s == "" {
		return DefaultProfileTypes(), nil
	}

	valid := make(map[ProfileType]bool)
	for _, pt := range AllProfileTypes() {
		valid[pt] = true
	}

	parts := strings.Split(s, ",")
	types := make([]ProfileType, 0, len(parts))
	for _, p := range parts {
		pt := ProfileType(strings.TrimSpace(strings.ToLower(p)))
		if !valid[pt] {
			return nil, fmt.Errorf("unknown profile type: %q", p)
		}
		types = append(types, pt)
	}
	return types, nil
}

// Config holds the profiling settings the CLI's --pprof-* flags map onto.
type Config struct {
	Enabled   bool
	Mode      Mode
	Profiles  []ProfileType
	OutputDir string

	// File-mode settings.
	Interval    time.Duration // time between snapshots
	CPUDuration time.Duration // how long each CPU snapshot samples
	CPURate     int           // requested CPU sampling rate in Hz; the collector does not apply it, CPU profiles use the runtime's default rate

	// HTTP-mode settings.
	Addr string
}

// DefaultConfig returns a Config with the defaults the CLI advertises.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     false,
		Mode:        ModeFile,
		Profiles:    DefaultProfileTypes(),
		OutputDir:   "./pprof",
		Interval:    30 * time.Second,
		CPUDuration: 10 * time.Second,
		CPURate:     100,
		Addr:        ":6060",
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Mode != ModeFile && c.Mode != ModeHTTP {
		return fmt.Errorf("invalid pprof mode: %q (valid: file, http)", c.Mode)
	}
	if len(c.Profiles) == 0 {
		return fmt.Errorf("at least one profile type must be specified")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Mode == ModeFile {
		if c.Interval < time.Second {
			return fmt.Errorf("interval must be at least 1 second")
		}
		if c.CPUDuration < time.Second {
			return fmt.Errorf("CPU duration must be at least 1 second")
		}
		if c.CPUDuration >= c.Interval {
			return fmt.Errorf("CPU duration must be less than interval")
		}
	}
	if c.Mode == ModeHTTP && c.Addr == "" {
		return fmt.Errorf("HTTP address is required")
	}
	return nil
}

func (c *Config) hasProfile(pt ProfileType) bool {
	for _, p := range c.Profiles {
		if p == pt {
			return true
		}
	}
	return false
}
