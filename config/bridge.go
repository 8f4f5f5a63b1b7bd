package config

import (
	"github.com/curtisnewbie/cpubridge/util/async"
	"github.com/curtisnewbie/cpubridge/util/errs"
	"github.com/curtisnewbie/cpubridge/util/utillog"
)

type PoolConfig struct {
	Name     string
	Workers  int
	Sizing   async.Sizing
	Ordering async.Ordering
}

type MetricsConfig struct {
	Enabled             bool
	Namespace           string
	Address             string
	StatsLogIntervalSec int
}

type LoggingConfig struct {
	Level string
	File  utillog.RollingFileParam
}

// Load PoolConfig from the given AppConfig.
//
// If workers is not positive, it's derived from the sizing, see [async.ProcessingUnits].
func LoadPoolConfig(a *AppConfig) (PoolConfig, error) {
	var pc PoolConfig
	pc.Name = a.GetPropStr(PropPoolName)

	sz, err := async.ParseSizing(a.GetPropStr(PropPoolSizing))
	if err != nil {
		return pc, errs.WrapErrf(err, "invalid prop '%v'", PropPoolSizing)
	}
	pc.Sizing = sz

	ord, err := async.ParseOrdering(a.GetPropStr(PropPoolDefaultOrdering))
	if err != nil {
		return pc, errs.WrapErrf(err, "invalid prop '%v'", PropPoolDefaultOrdering)
	}
	pc.Ordering = ord

	workers, err := a.GetPropIntE(PropPoolWorkers)
	if err != nil {
		return pc, err
	}
	if workers < 1 {
		workers = async.ProcessingUnits(sz)
	}
	pc.Workers = workers
	return pc, nil
}

func LoadMetricsConfig(a *AppConfig) MetricsConfig {
	return MetricsConfig{
		Enabled:             a.GetPropBool(PropMetricsEnabled),
		Namespace:           a.GetPropStr(PropMetricsNamespace),
		Address:             a.GetPropStr(PropMetricsAddress),
		StatsLogIntervalSec: a.GetPropInt(PropStatsLogIntervalSec),
	}
}

func LoadLoggingConfig(a *AppConfig) LoggingConfig {
	return LoggingConfig{
		Level: a.GetPropStr(PropLoggingLevel),
		File: utillog.RollingFileParam{
			Filename:   a.GetPropStr(PropLoggingFileName),
			MaxSize:    a.GetPropInt(PropLoggingFileMaxSize),
			MaxAge:     a.GetPropInt(PropLoggingFileMaxAge),
			MaxBackups: a.GetPropInt(PropLoggingFileMaxBackups),
		},
	}
}

// Apply logging config to the package logger.
//
// Returns a closer for the rolling log file, or nil if logs only go to stdout.
func (l LoggingConfig) Apply() (closer func() error) {
	if !utillog.SetLevel(l.Level) {
		utillog.Warnf("Unknown log level '%v', ignored", l.Level)
	}
	if l.File.Filename == "" {
		return nil
	}
	return utillog.SetRollingFile(l.File).Close
}
