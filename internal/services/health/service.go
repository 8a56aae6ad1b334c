package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultProbeTimeout = 2 * time.Second

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Report is the health payload. OK is false when any dependency failed.
type Report struct {
	OK           bool              `json:"ok"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Service probes registered dependencies.
type Service struct {
	deps    map[string]Pinger
	timeout time.Duration
}

// NewService constructs a health service with no dependencies.
func NewService() *Service {
	return &Service{deps: map[string]Pinger{}, timeout: defaultProbeTimeout}
}

// Register adds a named dependency. Nil pingers are ignored.
func (s *Service) Register(name string, p Pinger) {
	if p == nil {
		return
	}
	s.deps[name] = p
}

// Names lists registered dependencies in sorted order.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.deps))
	for name := range s.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status pings every dependency concurrently.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true}
	if len(s.deps) == 0 {
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var mu sync.Mutex
	report.Dependencies = make(map[string]string, len(s.deps))
	g, gctx := errgroup.WithContext(ctx)
	for name, p := range s.deps {
		g.Go(func() error {
			state := "ok"
			if err := p.PingContext(gctx); err != nil {
				state = err.Error()
			}
			mu.Lock()
			report.Dependencies[name] = state
			if state != "ok" {
				report.OK = false
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return report
}
