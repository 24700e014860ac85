// Package config handles nstool configuration loading.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/nsforge/nstool/pkg/errs"
)

// Config is the root configuration structure for an nstool run, worker,
// or dispatcher process.
type Config struct {
	Run        RunConfig        `yaml:"run"`
	Worker     WorkerConfig     `yaml:"worker"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Trace      TraceConfig      `yaml:"trace"`
}

// RunConfig holds the engine construction options (spec §4.3).
type RunConfig struct {
	Nreplicas   int     `yaml:"nreplicas" env:"NSTOOL_NREPLICAS"`
	Ndof        int     `yaml:"ndof" env:"NSTOOL_NDOF"`
	Nproc       int     `yaml:"nproc" env:"NSTOOL_NPROC"`
	K           int     `yaml:"k" env:"NSTOOL_K"`
	Mciter      int     `yaml:"mciter" env:"NSTOOL_MCITER"`
	Stepsize    float64 `yaml:"stepsize" env:"NSTOOL_STEPSIZE"`
	StepsizeMin float64 `yaml:"stepsize_min" env:"NSTOOL_STEPSIZE_MIN"`
	MaxStepsize float64 `yaml:"max_stepsize" env:"NSTOOL_MAX_STEPSIZE"`
	Etol        float64 `yaml:"etol" env:"NSTOOL_ETOL"`
	MaxIter     int     `yaml:"max_iter" env:"NSTOOL_MAX_ITER"`
	TargetRatio float64 `yaml:"target_ratio" env:"NSTOOL_TARGET_RATIO"`
	Seed        uint64  `yaml:"seed" env:"NSTOOL_SEED"`

	DispatcherEndpoint     string        `yaml:"dispatcher_endpoint" env:"NSTOOL_DISPATCHER_ENDPOINT"`
	DispatcherEndpointFile string        `yaml:"dispatcher_endpoint_file" env:"NSTOOL_DISPATCHER_ENDPOINT_FILE"`
	RetryMax               int           `yaml:"retry_max" env:"NSTOOL_RETRY_MAX"`
	BatchTimeout           time.Duration `yaml:"batch_timeout" env:"NSTOOL_BATCH_TIMEOUT"`
}

// WorkerConfig holds the remote worker daemon's settings.
type WorkerConfig struct {
	SelfAddr        string        `yaml:"self_addr" env:"NSTOOL_WORKER_SELF_ADDR"`
	Listen          string        `yaml:"listen" env:"NSTOOL_WORKER_LISTEN"`
	DispatcherAddr  string        `yaml:"dispatcher_addr" env:"NSTOOL_WORKER_DISPATCHER_ADDR"`
	HeartbeatPeriod time.Duration `yaml:"heartbeat_period" env:"NSTOOL_WORKER_HEARTBEAT_PERIOD"`
}

// DispatcherConfig holds the dispatcher service's settings.
type DispatcherConfig struct {
	Listen           string        `yaml:"listen" env:"NSTOOL_DISPATCHER_LISTEN"`
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout" env:"NSTOOL_DISPATCHER_HEARTBEAT_TIMEOUT"`
	EndpointFile     string        `yaml:"endpoint_file" env:"NSTOOL_DISPATCHER_ENDPOINT_FILE"`
}

// TraceConfig holds output sink settings (spec §6).
type TraceConfig struct {
	EnergiesPath      string `yaml:"energies_path" env:"NSTOOL_TRACE_ENERGIES_PATH"`
	ReplicasFinalPath string `yaml:"replicas_final_path" env:"NSTOOL_TRACE_REPLICAS_FINAL_PATH"`
	ManifestPath      string `yaml:"manifest_path" env:"NSTOOL_TRACE_MANIFEST_PATH"`
	CSVPath           string `yaml:"csv_path" env:"NSTOOL_TRACE_CSV_PATH"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Nreplicas:   100,
			Ndof:        1,
			Nproc:       4,
			K:           4,
			Mciter:      200,
			Stepsize:    0.1,
			StepsizeMin: 0,
			MaxStepsize: 1.0,
			Etol:        0.01,
			MaxIter:     0,
			TargetRatio: 0.5,
			RetryMax:    3,
		},
		Worker: WorkerConfig{
			Listen:          ":9100",
			HeartbeatPeriod: 10 * time.Second,
		},
		Dispatcher: DispatcherConfig{
			Listen:           ":9000",
			HeartbeatTimeout: 30 * time.Second,
			EndpointFile:     "dispatcher_uri.dat",
		},
		Trace: TraceConfig{
			EnergiesPath:      "label.energies",
			ReplicasFinalPath: "label.replicas_final",
		},
	}
}

// Load loads configuration from a YAML file, then layers environment
// variable overrides on top (caarlos0/env), so long-running worker and
// dispatcher daemons can be reconfigured per host without editing YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.ConfigWrap(err, errs.ErrConfigReadFailed, "failed to read config")
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.ConfigWrap(err, errs.ErrConfigParseFailed, "failed to parse config")
	}

	if err := env.Parse(cfg); err != nil {
		return nil, errs.ConfigWrap(err, errs.ErrConfigParseFailed, "failed to apply environment overrides")
	}

	return cfg, nil
}

// LoadOrDefault loads config from path, or returns the default (with
// environment overrides still applied) if path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		if err := env.Parse(cfg); err != nil {
			return nil, errs.ConfigWrap(err, errs.ErrConfigParseFailed, "failed to apply environment overrides")
		}
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return LoadOrDefault("")
	}

	return Load(path)
}

// Save writes configuration to a YAML file, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errs.ConfigWrap(err, errs.ErrConfigWriteFailed, "failed to create config directory")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errs.ConfigWrap(err, errs.ErrConfigWriteFailed, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errs.ConfigWrap(err, errs.ErrConfigWriteFailed, "failed to write config file")
	}
	return nil
}
