// Package offline decides whether the chat host can be reached before the
// shell navigates to it.
package offline

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"

	"grape/internal/infrastructure/logging"
)

// DefaultTimeout bounds a single reachability check
const DefaultTimeout = 5 * time.Second

const userAgent = "GrapeDesktop"

// Checker is what the URL loader asks before a network navigation
type Checker interface {
	Reachable(ctx context.Context, target string) bool
}

// Probe fetches the target once with colly. Any HTTP response, whatever its
// status, means the host is reachable; a transport error means offline.
type Probe struct {
	timeout   time.Duration
	transport http.RoundTripper
	logger    logging.Logger
}

var _ Checker = (*Probe)(nil)

// NewProbe creates a probe. transport may be nil to use colly's default.
func NewProbe(transport http.RoundTripper, timeout time.Duration, logger logging.Logger) *Probe {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Probe{timeout: timeout, transport: transport, logger: logger}
}

func (p *Probe) collector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.MaxBodySize(64*1024),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(p.timeout)
	if p.transport != nil {
		c.WithTransport(p.transport)
	}
	return c
}

func (p *Probe) Reachable(ctx context.Context, target string) bool {
	if ctx.Err() != nil {
		return false
	}

	var reachable atomic.Bool
	c := p.collector()

	c.OnResponse(func(r *colly.Response) {
		reachable.Store(true)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			reachable.Store(true)
			return
		}
		p.logger.Debug("Host unreachable", "url", target, "error", err.Error())
	})

	start := time.Now()
	if err := c.Visit(target); err != nil && !reachable.Load() {
		p.logger.Debug("Probe request failed", "url", target, "error", err.Error())
	}

	p.logger.Debug("Probe finished", "url", target, "reachable", reachable.Load(),
		"duration_ms", time.Since(start).Milliseconds())
	return reachable.Load()
}

// Always is a Checker with a fixed answer
type Always bool

func (a Always) Reachable(context.Context, string) bool { return bool(a) }
