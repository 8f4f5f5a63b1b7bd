package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/curtisnewbie/cpubridge/config"
	"github.com/curtisnewbie/cpubridge/metrics"
	"github.com/curtisnewbie/cpubridge/util/async"
	"github.com/curtisnewbie/cpubridge/util/cli"
	"github.com/curtisnewbie/cpubridge/util/utillog"
	"github.com/curtisnewbie/cpubridge/version"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	ConfigFile = flag.String("config", "", "Path to the yaml config file, defaults to configFile=... arg or conf.yml")
	Tasks      = flag.Int("tasks", 1000, "Number of tasks to submit")
	Ordering   = flag.String("ordering", "", "Submission ordering, lifo or fifo, defaults to bridge.pool.default-ordering")
	Workers    = flag.Int("workers", 0, "Number of workers, defaults to bridge.pool.workers")
	Work       = flag.Int("work", 200_000, "Hash rounds per task")
	PanicEvery = flag.Int("panic-every", 0, "Make every n-th task panic, 0 to disable")
	Linger     = flag.Bool("linger", false, "Keep serving metrics after the benchmark until interrupted")
)

func main() {
	flag.Usage = func() {
		cli.Printlnf("\nbridgebench - run CPU-bound tasks through the worker pool bridge\n")
		cli.Printlnf("  Version: %v\n", version.Version)
		cli.Printlnf("Usage of %s: [flags] [prop=value ...]", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if _, err := maxprocs.Set(maxprocs.Logger(utillog.Infof)); err != nil {
		utillog.Warnf("Failed to set GOMAXPROCS, %v", err)
	}

	if err := run(); err != nil {
		cli.ErrorPrintlnf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	conf := config.Global()
	path := *ConfigFile
	if path == "" {
		path = config.GuessConfigFilePath(flag.Args())
	}
	if err := config.LoadConfigFile(path); err != nil {
		if *ConfigFile != "" {
			return err
		}
		utillog.Debugf("Skipped config file, %v", err)
	}
	conf.OverwriteConf(flag.Args())
	if *Workers > 0 {
		conf.SetProp(config.PropPoolWorkers, *Workers)
	}
	if *Ordering != "" {
		conf.SetProp(config.PropPoolDefaultOrdering, *Ordering)
	}

	if closer := config.LoadLoggingConfig(conf).Apply(); closer != nil {
		defer closer()
	}

	pc, err := config.LoadPoolConfig(conf)
	if err != nil {
		return err
	}
	mc := config.LoadMetricsConfig(conf)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := []async.PoolOption{async.WithPoolName(pc.Name)}
	if mc.Enabled {
		c := metrics.NewPoolCollector(mc.Namespace)
		if err := c.Register(prometheus.DefaultRegisterer); err != nil {
			return err
		}
		opts = append(opts, async.WithObserver(c))
	}
	if err := async.InitGlobalPool(pc.Workers, opts...); err != nil {
		return err
	}
	pool := async.GlobalPool()

	if mc.StatsLogIntervalSec > 0 {
		reporter, err := metrics.NewStatsReporter(time.Duration(mc.StatsLogIntervalSec)*time.Second, pool)
		if err != nil {
			return err
		}
		reporter.Start()
		defer reporter.Stop()
	}

	serveErr := make(chan error, 1)
	if mc.Enabled && mc.Address != "" {
		go func() {
			serveErr <- metrics.ServeMetrics(ctx, mc.Address, metrics.PrometheusHandler())
		}()
	}

	bp := BenchParam{Tasks: *Tasks, Work: *Work, PanicEvery: *PanicEvery, Ordering: pc.Ordering}
	utillog.Infof("Running %d tasks on pool '%v', workers: %d, ordering: %v", bp.Tasks, pool.Name(), pool.Workers(), bp.Ordering)

	res, err := Bench(ctx, pool, bp)
	if err != nil {
		pool.ShutdownNow()
		return err
	}
	cli.Printlnf("tasks: %d, completed: %d, aborted: %d, checksum: %x, took: %v, throughput: %.1f tasks/s",
		bp.Tasks, res.Completed, res.Aborted, res.Checksum, res.Took, res.Throughput())

	if *Linger && mc.Enabled && mc.Address != "" {
		utillog.Infof("Lingering, press Ctrl-C to exit")
		select {
		case <-ctx.Done():
		case err := <-serveErr:
			if err != nil {
				utillog.Errorf("%v", err)
			}
		}
	}

	pool.Shutdown()
	return nil
}
