package probe

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "hearth/internal/log"
	"hearth/internal/luma"
	"hearth/internal/metrics"
)

// Checker verifies provider connectivity. *luma.Client implements it.
type Checker interface {
	CheckConnection(ctx context.Context, creds luma.Credentials) (luma.Self, error)
}

// Status is the outcome of the most recent check.
type Status struct {
	Checked   bool      `json:"checked"`
	OK        bool      `json:"ok"`
	Account   string    `json:"account,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
	Duration  string    `json:"duration,omitempty"`
}

// Probe periodically checks that the API key still works. It never touches
// event data.
type Probe struct {
	checker Checker
	creds   luma.Credentials
	timeout time.Duration
	now     func() time.Time

	mu   sync.RWMutex
	last Status
}

// New creates a Probe. timeout bounds each check; zero means 10s.
func New(checker Checker, creds luma.Credentials, timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Probe{
		checker: checker,
		creds:   creds,
		timeout: timeout,
		now:     time.Now,
	}
}

// Last returns the most recent status.
func (p *Probe) Last() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// RunOnce performs a single check and records it.
func (p *Probe) RunOnce(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	self, err := p.checker.CheckConnection(ctx, p.creds)

	st := Status{
		Checked:   true,
		OK:        err == nil,
		CheckedAt: start.UTC(),
		Duration:  p.now().Sub(start).String(),
	}
	if err != nil {
		st.Error = err.Error()
		metrics.ProbeUp.Set(0)
		if luma.IsConfigurationError(err) {
			appLog.Debug("probe: provider not configured")
		} else {
			appLog.Error("probe: provider check failed", err)
		}
	} else {
		st.Account = self.Name
		metrics.ProbeUp.Set(1)
		appLog.Debug("probe: provider reachable", "account", self.Name)
	}

	p.mu.Lock()
	p.last = st
	p.mu.Unlock()
	return st
}

// Start schedules RunOnce with a standard 5-field cron spec and runs one
// check immediately. It stops when ctx is canceled.
func (p *Probe) Start(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { p.RunOnce(ctx) }); err != nil {
		return err
	}
	c.Start()
	appLog.Info("probe scheduled", "cron", spec)

	go p.RunOnce(ctx)

	go func() {
		<-ctx.Done()
		stopCtx := c.Stop()
		<-stopCtx.Done()
		appLog.Info("probe stopped")
	}()
	return nil
}
