package poll

import (
	"context"
	"sync/atomic"
	"time"

	"jobwatch/internal/config"
	"jobwatch/internal/logging"
)

// Status is the outcome of the most recent scheduled run.
type Status struct {
	Running   bool
	LastRunAt time.Time
	LastOkAt  time.Time
	LastError string
	LastDelta int
	Runs      int
}

// Poller runs RunOnce repeatedly (driven by the scheduler) and keeps the
// latest status.
type Poller struct {
	deps   Deps
	cfg    config.Config
	status atomic.Value // Status
}

func NewPoller(deps Deps, cfg config.Config) *Poller {
	if deps.Log == nil {
		deps.Log = logging.Nop()
	}
	p := &Poller{deps: deps, cfg: cfg}
	p.status.Store(Status{})
	return p
}

func (p *Poller) Status() Status {
	return p.status.Load().(Status)
}

// Run is one scheduled tick.
func (p *Poller) Run(ctx context.Context) error {
	st := p.Status()
	st.Running = true
	st.LastRunAt = time.Now()
	p.status.Store(st)

	rep, err := RunOnce(ctx, p.deps, p.cfg)

	st = p.Status()
	st.Running = false
	st.Runs++
	if err != nil {
		st.LastError = err.Error()
		p.deps.Log.Error("[poll] error", "err", err)
	} else {
		st.LastError = ""
		st.LastOkAt = time.Now()
		st.LastDelta = len(rep.Delta)
		p.deps.Log.Info("[poll] ok", "new", rep.Opened, "reopened", rep.Reopened, "closed", rep.Closed)
	}
	p.status.Store(st)
	return err
}
