package config

// Worker Pool Configuration
const (

	// name of the process-wide pool, used in logs and metrics | global
	PropPoolName = "bridge.pool.name"

	// number of workers, 0 means one worker per processing unit | 0
	PropPoolWorkers = "bridge.pool.workers"

	// how processing units are counted: gomaxprocs, logical or physical | gomaxprocs
	PropPoolSizing = "bridge.pool.sizing"

	// ordering used when the caller doesn't choose one: lifo or fifo | lifo
	PropPoolDefaultOrdering = "bridge.pool.default-ordering"
)

// Metrics Configuration
const (

	// enable prometheus metrics for the pool | false
	PropMetricsEnabled = "bridge.metrics.enabled"

	// namespace of the prometheus metrics | cpubridge
	PropMetricsNamespace = "bridge.metrics.namespace"

	// address of the /metrics endpoint, empty to disable | ""
	PropMetricsAddress = "bridge.metrics.address"

	// interval of pool stats log in seconds, 0 to disable | 0
	PropStatsLogIntervalSec = "bridge.stats.log-interval-sec"
)

// Logging Configuration
const (

	// log level | info
	PropLoggingLevel = "logging.level"

	// path of the rolling log file, empty to log to stdout only
	PropLoggingFileName = "logging.file.name"

	// max size of the log file in mb | 50
	PropLoggingFileMaxSize = "logging.file.max-size"

	// max age of rolled log files in days | 0
	PropLoggingFileMaxAge = "logging.file.max-age"

	// max number of rolled log files | 10
	PropLoggingFileMaxBackups = "logging.file.max-backups"
)

type defaultProp struct {
	prop string
	val  any
}

var (
	defaultProps = []defaultProp{
		{PropPoolName, "global"},
		{PropPoolWorkers, 0},
		{PropPoolSizing, "gomaxprocs"},
		{PropPoolDefaultOrdering, "lifo"},
		{PropMetricsEnabled, false},
		{PropMetricsNamespace, "cpubridge"},
		{PropMetricsAddress, ""},
		{PropStatsLogIntervalSec, 0},
		{PropLoggingLevel, "info"},
		{PropLoggingFileName, ""},
		{PropLoggingFileMaxSize, 50},
		{PropLoggingFileMaxAge, 0},
		{PropLoggingFileMaxBackups, 10},
	}

	// props that can be overwritten by environment variables
	envBindings = map[string]string{
		PropPoolWorkers:  "BRIDGE_POOL_WORKERS",
		PropPoolSizing:   "BRIDGE_POOL_SIZING",
		PropLoggingLevel: "BRIDGE_LOG_LEVEL",
	}
)
