package metrics

import (
	"time"

	"github.com/curtisnewbie/cpubridge/util/async"
	"github.com/curtisnewbie/cpubridge/util/errs"
	"github.com/curtisnewbie/cpubridge/util/utillog"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// Periodically logs [async.PoolStats] of the given pools.
type StatsReporter struct {
	sched *gocron.Scheduler
	pools []*async.Pool
	log   *logrus.Entry
}

func NewStatsReporter(interval time.Duration, pools ...*async.Pool) (*StatsReporter, error) {
	if interval < time.Second {
		return nil, errs.NewErrf("stats log interval must be at least 1s, got: %v", interval)
	}
	r := &StatsReporter{
		sched: gocron.NewScheduler(time.UTC),
		pools: pools,
		log:   utillog.WithComponent("stats"),
	}
	r.sched.SingletonModeAll()
	if _, err := r.sched.Every(interval).Tag("PoolStatsLogJob").Do(r.Report); err != nil {
		return nil, errs.WrapErrf(err, "failed to schedule pool stats job, interval: %v", interval)
	}
	return r, nil
}

// Start reporting in background.
func (r *StatsReporter) Start() {
	r.sched.StartAsync()
	r.log.Infof("Pool stats reporter started, pools: %d", len(r.pools))
}

func (r *StatsReporter) Stop() {
	r.sched.Stop()
}

// Log stats of each pool once.
func (r *StatsReporter) Report() {
	for _, p := range r.pools {
		st := p.Stats()
		r.log.Infof("Pool '%v' workers: %d, queued: %d, running: %d, executed: %d, faults: %d, discarded: %d",
			st.Name, st.Workers, st.Queued, st.Running, st.Executed, st.Faults, st.Discarded)
	}
}
