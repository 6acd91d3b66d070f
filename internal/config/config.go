// Package config provides unified configuration loading for sensornet.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/sensornet/internal/fusion"
	"github.com/nvandessel/sensornet/internal/network"
)

// Config contains all sensornet configuration settings.
type Config struct {
	// Simulation contains settings for network construction and the run loop.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Sensing contains the per-node measurement model settings.
	Sensing SensingConfig `json:"sensing" yaml:"sensing"`

	// Store contains settings for run persistence.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig configures network construction and the simulation loop.
type SimulationConfig struct {
	// Nodes is the number of sensor nodes to place.
	Nodes int `json:"nodes" yaml:"nodes"`

	// RegionSize is the side length of the square deployment region.
	RegionSize float64 `json:"region_size" yaml:"region_size"`

	// Radius is the communication radius. 0 means unlimited range.
	Radius float64 `json:"radius" yaml:"radius"`

	// AlternateRadius, when non-zero, is swapped in every ten steps to
	// exercise a changing topology.
	AlternateRadius float64 `json:"alternate_radius,omitempty" yaml:"alternate_radius,omitempty"`

	// MaxNeighbors caps each node's neighbor list. 0 means uncapped.
	MaxNeighbors int `json:"max_neighbors,omitempty" yaml:"max_neighbors,omitempty"`

	// Policy selects the fusion weight policy: "MaxDegree", "Metropolis",
	// "WeightDesign1", or "WeightDesign2".
	Policy string `json:"policy" yaml:"policy"`

	// Seed drives all randomness; equal seeds reproduce runs exactly.
	Seed int64 `json:"seed" yaml:"seed"`

	// Iterations is the number of simulation steps to run.
	Iterations int `json:"iterations" yaml:"iterations"`

	// BuildAttempts bounds how many placements are tried before giving up
	// on a connected network. 0 uses the default.
	BuildAttempts int `json:"build_attempts,omitempty" yaml:"build_attempts,omitempty"`
}

// SensingConfig configures the per-node measurement model.
type SensingConfig struct {
	// NoiseCoeff is the additive noise coefficient in the sensing variance.
	NoiseCoeff float64 `json:"noise_coeff" yaml:"noise_coeff"`

	// SensingRange scales how quickly measurement quality decays with
	// distance from the network centroid.
	SensingRange float64 `json:"sensing_range" yaml:"sensing_range"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	// Path is the SQLite database file for recorded runs.
	// Empty disables persistence.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig configures sensornet's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "trace" additionally emits per-step round records to rounds.jsonl.
	Level string `json:"level" yaml:"level"`

	// Dir is the directory for trace output. Empty disables the trace file.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Nodes:      10,
			RegionSize: 5,
			Radius:     1.7,
			Policy:     fusion.MaxDegree.String(),
			Seed:       50,
			Iterations: 100,
		},
		Sensing: SensingConfig{
			NoiseCoeff:   network.DefaultNoiseCoeff,
			SensingRange: network.DefaultSensingRange,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.sensornet/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".sensornet", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Simulation.Nodes < 1 {
		return fmt.Errorf("nodes must be at least 1, got %d", c.Simulation.Nodes)
	}
	if c.Simulation.RegionSize <= 0 {
		return fmt.Errorf("region_size must be positive, got %f", c.Simulation.RegionSize)
	}
	if c.Simulation.Radius < 0 {
		return fmt.Errorf("radius must be non-negative, got %f", c.Simulation.Radius)
	}
	if c.Simulation.AlternateRadius < 0 {
		return fmt.Errorf("alternate_radius must be non-negative, got %f", c.Simulation.AlternateRadius)
	}
	if c.Simulation.MaxNeighbors < 0 {
		return fmt.Errorf("max_neighbors must be non-negative, got %d", c.Simulation.MaxNeighbors)
	}
	if c.Simulation.Iterations < 0 {
		return fmt.Errorf("iterations must be non-negative, got %d", c.Simulation.Iterations)
	}
	if c.Simulation.BuildAttempts < 0 {
		return fmt.Errorf("build_attempts must be non-negative, got %d", c.Simulation.BuildAttempts)
	}

	if _, err := fusion.ParsePolicy(c.Simulation.Policy); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	if c.Sensing.NoiseCoeff <= 0 {
		return fmt.Errorf("noise_coeff must be positive, got %f", c.Sensing.NoiseCoeff)
	}
	if c.Sensing.SensingRange <= 0 {
		return fmt.Errorf("sensing_range must be positive, got %f", c.Sensing.SensingRange)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SENSORNET_NODES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Nodes = n
		}
	}
	if v := os.Getenv("SENSORNET_REGION_SIZE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Simulation.RegionSize = f
		}
	}
	if v := os.Getenv("SENSORNET_RADIUS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Simulation.Radius = f
		}
	}
	if v := os.Getenv("SENSORNET_POLICY"); v != "" {
		config.Simulation.Policy = v
	}
	if v := os.Getenv("SENSORNET_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}
	if v := os.Getenv("SENSORNET_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Iterations = n
		}
	}
	if v := os.Getenv("SENSORNET_DB_PATH"); v != "" {
		config.Store.Path = v
	}
	if v := os.Getenv("SENSORNET_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
