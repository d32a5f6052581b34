package profiling

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"
	"runtime"
	runpprof "runtime/pprof"
	"sync"
	"time"
)

// Collector drives profile collection for one run, in either file or
// HTTP mode depending on its Config.
type Collector struct {
	cfg *Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	srv *http.Server

	// one CPU profile at a time; the runtime rejects overlapping ones
	cpuMu sync.Mutex

	mu      sync.Mutex
	running bool
}

// NewCollector validates cfg and returns a Collector ready to Start.
func NewCollector(cfg *Config) (*Collector, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Collector{cfg: cfg}, nil
}

// OutputDir returns the directory snapshots are written to.
func (c *Collector) OutputDir() string { return c.cfg.OutputDir }

// Start begins collection. In file mode it launches the snapshot loop;
// in HTTP mode it starts the pprof endpoint server.
func (c *Collector) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("collector is already running")
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())

	switch c.cfg.Mode {
	case ModeFile:
		for _, pt := range c.cfg.Profiles {
			if err := os.MkdirAll(filepath.Join(c.cfg.OutputDir, string(pt)), 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if c.cfg.hasProfile(ProfileBlock) {
			runtime.SetBlockProfileRate(1)
		}
		if c.cfg.hasProfile(ProfileMutex) {
			runtime.SetMutexProfileFraction(1)
		}
		c.wg.Add(1)
		go c.fileLoop()
	case ModeHTTP:
		mux := http.NewServeMux()
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
		c.srv = &http.Server{Addr: c.cfg.Addr, Handler: mux}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(os.Stderr, "pprof http server: %v\n", err)
			}
		}()
	}

	c.running = true
	return nil
}

// Stop ends collection. In file mode a final set of non-CPU snapshots is
// written so the run's end state is always captured.
func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.mu.Unlock()

	c.cancel()

	if c.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = c.srv.Shutdown(ctx)
	}
	c.wg.Wait()

	if c.cfg.Mode == ModeFile {
		c.finalSnapshots()
		runtime.SetBlockProfileRate(0)
		runtime.SetMutexProfileFraction(0)
	}
	return nil
}

func (c *Collector) fileLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	c.snapshotAll()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.snapshotAll()
		}
	}
}

func (c *Collector) snapshotAll() {
	for _, pt := range c.cfg.Profiles {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var data []byte
		var err error
		if pt == ProfileCPU {
			data, err = c.snapshotCPU(c.ctx, c.cfg.CPUDuration)
		} else {
			data, err = c.snapshot(pt)
		}
		if err != nil {
			continue
		}
		_ = c.writeSnapshot(pt, data)
	}
}

// finalSnapshots writes non-CPU profiles one last time at Stop, so the
// heap/goroutine state at the end of the run is preserved.
func (c *Collector) finalSnapshots() {
	for _, pt := range c.cfg.Profiles {
		if pt == ProfileCPU {
			continue
		}
		data, err := c.snapshot(pt)
		if err != nil {
			continue
		}
		_ = c.writeSnapshot(pt, data)
	}
}

func (c *Collector) snapshot(pt ProfileType) ([]byte, error) {
	var buf bytes.Buffer
	if pt == ProfileHeap {
		runtime.GC() // heap snapshots are only meaningful after a collection
		if err := runpprof.WriteHeapProfile(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	p := runpprof.Lookup(string(pt))
	if p == nil {
		return nil, fmt.Errorf("profile %q not found", pt)
	}
	if err := p.WriteTo(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Collector) snapshotCPU(ctx context.Context, duration time.Duration) ([]byte, error) {
	c.cpuMu.Lock()
	defer c.cpuMu.Unlock()

	var buf bytes.Buffer
	if err := runpprof.StartCPUProfile(&buf); err != nil {
		return nil, err
	}
	select {
	case <-time.After(duration):
	case <-ctx.Done():
	}
	runpprof.StopCPUProfile()
	return buf.Bytes(), nil
}

func (c *Collector) writeSnapshot(pt ProfileType, data []byte) error {
	name := fmt.Sprintf("%s_%s.pprof", pt, time.Now().Format("20060102_150405"))
	path := filepath.Join(c.cfg.OutputDir, string(pt), name)
	return os.WriteFile(path, data, 0o644)
}
