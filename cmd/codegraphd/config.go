// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/pkg/cache"
	"github.com/kraklabs/codegraph/pkg/cdc"
)

const (
	defaultConfigDir  = ".codegraph"
	defaultConfigFile = "project.yaml"
	configVersion     = "1"
)

// Config represents the .codegraph/project.yaml configuration file.
type Config struct {
	Version     string         `yaml:"version"`
	ProjectID   string         `yaml:"project_id"`
	ProjectRoot string         `yaml:"project_root"`
	RedisAddr   string         `yaml:"redis_addr"`
	Neo4jURI    string         `yaml:"neo4j_uri,omitempty"`
	Neo4jUser   string         `yaml:"neo4j_user,omitempty"`
	Neo4jPass   string         `yaml:"neo4j_password,omitempty"`
	Cache       CacheConfig    `yaml:"cache"`
	Parser      ParserConfig   `yaml:"parser"`
	Graph       GraphConfig    `yaml:"graph"`
	Router      RouterConfig   `yaml:"router"`
	CDC         CDCConfig      `yaml:"cdc"`
	Analysis    AnalysisConfig `yaml:"analysis"`
	Watcher     WatcherConfig  `yaml:"watcher"`
}

// CacheConfig mirrors the Hybrid Cache Manager's tunables.
type CacheConfig struct {
	Strategy                  string `yaml:"strategy"` // memory_only, remote_only, hybrid, remote_fallback
	DefaultTTLSeconds         int    `yaml:"default_ttl_s"`
	CompressionThresholdBytes int    `yaml:"compression_threshold_bytes"`
}

// ParserConfig mirrors the Universal Parser's tunables.
type ParserConfig struct {
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

// GraphConfig mirrors the Code Graph Engine's tunables.
type GraphConfig struct {
	RecursionNamePatterns []string `yaml:"recursion_name_patterns"`
}

// RouterConfig mirrors the Hybrid Query Router's tunables.
type RouterConfig struct {
	HopThreshold int `yaml:"hop_threshold"`
}

// CDCConfig mirrors the CDC Pipeline's backend channel names.
type CDCConfig struct {
	StreamKey string `yaml:"stream_key"`
	PubSubKey string `yaml:"pubsub_key"`
}

// AnalysisConfig mirrors the Analysis Orchestrator's tunables.
type AnalysisConfig struct {
	TimeoutSeconds int `yaml:"timeout_s"`
}

// WatcherConfig mirrors the file watcher's debounce tunable.
type WatcherConfig struct {
	DebounceSeconds float64 `yaml:"debounce_s"`
}

// DefaultConfig returns a config with the defaults from the configuration
// option table, for a project rooted at projectRoot.
func DefaultConfig(projectID, projectRoot string) *Config {
	return &Config{
		Version:     configVersion,
		ProjectID:   projectID,
		ProjectRoot: projectRoot,
		RedisAddr:   getEnv("CODEGRAPH_REDIS_ADDR", "localhost:6379"),
		Neo4jURI:    getEnv("CODEGRAPH_NEO4J_URI", ""),
		Neo4jUser:   getEnv("CODEGRAPH_NEO4J_USER", "neo4j"),
		Neo4jPass:   getEnv("CODEGRAPH_NEO4J_PASSWORD", ""),
		Cache: CacheConfig{
			Strategy:                  string(cache.StrategyHybrid),
			DefaultTTLSeconds:         int(cache.DefaultTTL.Seconds()),
			CompressionThresholdBytes: 1024,
		},
		Parser: ParserConfig{
			MaxFileBytes: 1 << 20,
		},
		Graph: GraphConfig{
			RecursionNamePatterns: []string{
				"(?i)recursive", "(?i)recurse", "(?i)factorial", "(?i)fibonacci",
				"(?i)traverse", "(?i)walk", "(?i)visit", "(?i)search",
				"(?i)sort", "(?i)merge", "(?i)quick", "(?i)binary",
			},
		},
		Router: RouterConfig{
			HopThreshold: 3,
		},
		CDC: CDCConfig{
			StreamKey: cdc.DefaultStreamKey,
			PubSubKey: cdc.DefaultPubSubKey,
		},
		Analysis: AnalysisConfig{
			TimeoutSeconds: 300,
		},
		Watcher: WatcherConfig{
			DebounceSeconds: 2.0,
		},
	}
}

// LoadConfig loads configuration from the specified path, or finds it by
// walking up from the current directory when configPath is empty.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CODEGRAPH_CONFIG_PATH")
	}
	if configPath == "" {
		var err error
		configPath, err = findConfigFile()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path comes from user config or discovery
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot read configuration file",
			fmt.Sprintf("Failed to read %s", configPath),
			"Check file permissions and ensure the file exists",
			err,
		)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration format",
			"YAML parsing failed - the config file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors, or run 'codegraphd init --force' to recreate", configPath),
			err,
		)
	}

	if cfg.Version != configVersion {
		return nil, errors.NewConfigError(
			"Unsupported configuration version",
			fmt.Sprintf("Config version '%s' is not supported (expected '%s')", cfg.Version, configVersion),
			"Run 'codegraphd init --force' to regenerate the configuration file",
			nil,
		)
	}

	cfg.applyEnvOverrides()
	return &cfg, nil
}

// SaveConfig writes cfg to configPath as YAML, creating the parent
// directory if needed.
func SaveConfig(cfg *Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewInternalError(
			"Cannot encode configuration",
			"YAML marshaling failed unexpectedly",
			"This is a bug. Please report it with your configuration details",
			err,
		)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.NewPermissionError(
			"Cannot create configuration directory",
			fmt.Sprintf("Permission denied creating %s", dir),
			"Check directory permissions or run with appropriate privileges",
			err,
		)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.NewPermissionError(
			"Cannot write configuration file",
			fmt.Sprintf("Permission denied writing to %s", configPath),
			"Check file permissions and ensure sufficient disk space",
			err,
		)
	}

	return nil
}

// ConfigPath returns <dir>/.codegraph/project.yaml.
func ConfigPath(dir string) string {
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

// ConfigDir returns <dir>/.codegraph.
func ConfigDir(dir string) string {
	return filepath.Join(dir, defaultConfigDir)
}

// findConfigFile walks up from the current directory looking for
// .codegraph/project.yaml.
func findConfigFile() (string, error) {
	if configPath := os.Getenv("CODEGRAPH_CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
		return "", errors.NewConfigError(
			"Configuration file not found",
			fmt.Sprintf("CODEGRAPH_CONFIG_PATH is set to '%s' but the file does not exist", configPath),
			"Fix the CODEGRAPH_CONFIG_PATH environment variable or run 'codegraphd init' to create a config",
			nil,
		)
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", errors.NewInternalError(
			"Cannot access working directory",
			"Failed to determine current directory path",
			"Check system permissions and try again",
			err,
		)
	}

	for {
		configPath := ConfigPath(dir)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.NewConfigError(
		"Configuration not found",
		"No .codegraph/project.yaml file found in current directory or any parent directory",
		"Run 'codegraphd init' to create a new configuration",
		nil,
	)
}

// applyEnvOverrides lets deployment environments override file-based
// configuration without editing project.yaml.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("CODEGRAPH_REDIS_ADDR"); addr != "" {
		c.RedisAddr = addr
	}
	if uri := os.Getenv("CODEGRAPH_NEO4J_URI"); uri != "" {
		c.Neo4jURI = uri
	}
	if user := os.Getenv("CODEGRAPH_NEO4J_USER"); user != "" {
		c.Neo4jUser = user
	}
	if pass := os.Getenv("CODEGRAPH_NEO4J_PASSWORD"); pass != "" {
		c.Neo4jPass = pass
	}
	if id := os.Getenv("CODEGRAPH_PROJECT_ID"); id != "" {
		c.ProjectID = id
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
