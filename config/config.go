package config

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/curtisnewbie/cpubridge/util/errs"
	"github.com/curtisnewbie/cpubridge/util/utillog"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

var (
	// regex for arg expansion
	resolveArgRegexp = regexp.MustCompile(`\${[a-zA-Z0-9\-\_\.]+}`)

	globalConfig     *AppConfig
	globalConfigOnce sync.Once
)

type AppConfig struct {
	vp   *viper.Viper
	rwmu *sync.RWMutex
}

// Create AppConfig with default props and env bindings.
func NewAppConfig() *AppConfig {
	a := &AppConfig{
		vp:   viper.New(),
		rwmu: &sync.RWMutex{},
	}
	for _, d := range defaultProps {
		a.vp.SetDefault(d.prop, d.val)
	}
	for prop, env := range envBindings {
		if err := a.vp.BindEnv(prop, env); err != nil {
			utillog.Warnf("Failed to bind env %v to prop %v, %v", env, prop, err)
		}
	}
	return a
}

// Process-wide AppConfig.
func Global() *AppConfig {
	globalConfigOnce.Do(func() {
		globalConfig = NewAppConfig()
	})
	return globalConfig
}

// Set value for the prop
func (a *AppConfig) SetProp(prop string, val any) {
	doWithWriteLock(a, func() {
		a.vp.Set(prop, val)
	})
}

// Get raw prop value
func (a *AppConfig) GetProp(prop string) any {
	return returnWithReadLock(a, func() any { return a.vp.Get(prop) })
}

// Get prop as int
func (a *AppConfig) GetPropInt(prop string) int {
	return returnWithReadLock(a, func() int { return a.vp.GetInt(prop) })
}

// Get prop as int, returns error if the value can't be converted.
func (a *AppConfig) GetPropIntE(prop string) (int, error) {
	v := a.GetProp(prop)
	if s, ok := v.(string); ok {
		v = a.ResolveArg(s)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, errs.WrapErrf(err, "invalid value for prop '%v'", prop)
	}
	return n, nil
}

// Get prop as time.Duration
func (a *AppConfig) GetPropDur(prop string, unit time.Duration) time.Duration {
	return time.Duration(a.GetPropInt(prop)) * unit
}

// Get prop as bool
func (a *AppConfig) GetPropBool(prop string) bool {
	return returnWithReadLock(a, func() bool { return a.vp.GetBool(prop) })
}

/*
Get prop as string

If the value is an argument that can be expanded, the actual value will be resolved if possible.

e.g, for "name" : "${secretName}".

This func will attempt to resolve the actual value for '${secretName}'.
*/
func (a *AppConfig) GetPropStr(prop string) string {
	return a.ResolveArg(returnWithReadLock(a, func() string { return a.vp.GetString(prop) }))
}

// Overwrite existing conf using cli args in 'KEY=VALUE' form.
func (a *AppConfig) OverwriteConf(args []string) {
	for k, v := range ArgKeyVal(args) {
		if len(v) == 1 {
			a.SetProp(k, v[0])
		} else {
			a.SetProp(k, v)
		}
	}
}

// Load config from io Reader.
//
// It's the caller's responsibility to close the provided reader.
//
// Loaded config is merged into previously loaded config.
func (a *AppConfig) LoadConfigFromReader(reader io.Reader) error {
	var eo error
	doWithWriteLock(a, func() {
		a.vp.SetConfigType("yml")
		if err := a.vp.MergeConfig(reader); err != nil {
			eo = errs.WrapErrf(err, "failed to load config from reader")
		}
	})
	return eo
}

// Load config from string.
func (a *AppConfig) LoadConfigFromStr(s string) error {
	return a.LoadConfigFromReader(bytes.NewReader([]byte(s)))
}

// Load config from file.
//
// Loaded config is merged into previously loaded config.
func (a *AppConfig) LoadConfigFromFile(configFile string) error {
	if configFile == "" {
		return nil
	}

	f, err := os.Open(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return errs.NewErrf("unable to find config file: '%s'", configFile)
		}
		return errs.WrapErrf(err, "failed to open config file: '%s'", configFile)
	}
	defer f.Close()

	if err := a.LoadConfigFromReader(f); err != nil {
		return errs.WrapErrf(err, "failed to load config file: '%s'", configFile)
	}
	utillog.Debugf("Loaded config file: '%v'", configFile)
	return nil
}

// Resolve argument, e.g., for arg like '${someArg}', it will in fact look for 'someArg' in os.Env
func (a *AppConfig) ResolveArg(arg string) string {
	return resolveArgRegexp.ReplaceAllStringFunc(arg, func(s string) string {
		r := []rune(s)
		key := string(r[2 : len(r)-1])
		val := os.Getenv(key)

		if val == "" {
			val = returnWithReadLock(a, func() string { return a.vp.GetString(key) })
		}

		if val == "" {
			val = s
		}
		return val
	})
}

// Load config file into the process-wide AppConfig.
func LoadConfigFile(path string) error {
	return Global().LoadConfigFromFile(path)
}

// call with viper lock
func doWithWriteLock(a *AppConfig, f func()) {
	a.rwmu.Lock()
	defer a.rwmu.Unlock()
	f()
}

func returnWithReadLock[T any](a *AppConfig, f func() T) T {
	a.rwmu.RLock()
	defer a.rwmu.RUnlock()
	return f()
}

// Parse CLI args to key-value map
func ArgKeyVal(args []string) map[string][]string {
	m := map[string][]string{}
	for _, s := range args {
		var eq int = strings.Index(s, "=")
		if eq == -1 {
			continue
		}

		key := strings.TrimSpace(s[:eq])
		val := strings.TrimSpace(s[eq+1:])
		if prev, ok := m[key]; ok {
			m[key] = append(prev, val)
		} else {
			m[key] = []string{val}
		}
	}
	return m
}

// Guess config file path.
//
// It first looks for the arg that matches the pattern "configFile=/path/to/configFile".
// If none is found, it's by default 'conf.yml'.
func GuessConfigFilePath(args []string) string {
	path := ExtractArgValue(args, func(key string) bool { return key == "configFile" })
	if strings.TrimSpace(path) == "" {
		path = "conf.yml"
	}
	return path
}

/*
Parse CLI Arg to extract a value from arg, [key]=[value]

e.g.,

To look for 'configFile=?'.

	path := ExtractArgValue(args, func(key string) bool { return key == "configFile" }).
*/
func ExtractArgValue(args []string, predicate func(key string) bool) string {
	for _, s := range args {
		var eq int = strings.Index(s, "=")
		if eq != -1 {
			if key := s[:eq]; predicate(key) {
				return s[eq+1:]
			}
		}
	}
	return ""
}
