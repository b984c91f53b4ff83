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

// Package bootstrap initializes and locates the on-disk state a project
// needs before the Analysis Orchestrator can run: the project directory,
// its connection defaults for the Hybrid Cache Manager's remote tier and
// the External-store Sync target, and the marker file that makes init
// idempotent.
package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ProjectConfig holds configuration for initializing a project.
type ProjectConfig struct {
	// ProjectID is the logical project identifier.
	ProjectID string

	// DataDir holds the project's local state: the project.json marker.
	// The analysis checkpoint and sync offset live under the project's
	// own .codegraph directory instead.
	// Defaults to ~/.codegraph/data/<project_id>.
	DataDir string

	// RedisAddr is the go-redis connection string backing the cache's
	// remote tier and the CDC stream/topic. Defaults to "localhost:6379".
	RedisAddr string

	// Neo4jURI is the bolt URI for the External-store Sync target.
	// Empty disables external-store sync for this project.
	Neo4jURI string
}

// ProjectInfo holds information about an initialized project.
type ProjectInfo struct {
	ProjectID string
	DataDir   string
	RedisAddr string
	Neo4jURI  string
}

// projectMarker is the on-disk record written by InitProject, used by
// OpenProject to confirm a project exists and recover its settings.
type projectMarker struct {
	ProjectID string    `json:"project_id"`
	RedisAddr string    `json:"redis_addr"`
	Neo4jURI  string    `json:"neo4j_uri,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const markerFileName = "project.json"

func applyDefaults(config *ProjectConfig) error {
	if config.RedisAddr == "" {
		config.RedisAddr = "localhost:6379"
	}
	if config.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("get home dir: %w", err)
		}
		config.DataDir = filepath.Join(homeDir, ".codegraph", "data", config.ProjectID)
	}
	return nil
}

// InitProject initializes a new code graph project's local state.
// This function is idempotent: calling it multiple times is safe and
// refreshes the marker file's connection settings without touching any
// cache or CDC state already on disk.
//
// Parameters:
//   - config: project configuration
//   - logger: optional logger (nil uses default)
//
// Returns:
//   - ProjectInfo: information about the initialized project
//   - error: if initialization fails
func InitProject(config ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	if err := applyDefaults(&config); err != nil {
		return nil, err
	}

	logger.Info("bootstrap.project.init.start",
		"project_id", config.ProjectID,
		"data_dir", config.DataDir,
		"redis_addr", config.RedisAddr,
	)

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	marker := projectMarker{
		ProjectID: config.ProjectID,
		RedisAddr: config.RedisAddr,
		Neo4jURI:  config.Neo4jURI,
		CreatedAt: time.Now(),
	}
	if existing, err := readMarker(config.DataDir); err == nil {
		marker.CreatedAt = existing.CreatedAt
	}
	if err := writeMarker(config.DataDir, marker); err != nil {
		return nil, fmt.Errorf("write project marker: %w", err)
	}

	logger.Info("bootstrap.project.init.success",
		"project_id", config.ProjectID,
		"data_dir", config.DataDir,
	)

	return &ProjectInfo{
		ProjectID: config.ProjectID,
		DataDir:   config.DataDir,
		RedisAddr: config.RedisAddr,
		Neo4jURI:  config.Neo4jURI,
	}, nil
}

// OpenProject locates an existing project's local state.
func OpenProject(config ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	if err := applyDefaults(&config); err != nil {
		return nil, err
	}

	marker, err := readMarker(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("project not found: %s (run init first): %w", config.DataDir, err)
	}

	logger.Debug("bootstrap.project.open",
		"project_id", config.ProjectID,
		"data_dir", config.DataDir,
	)

	return &ProjectInfo{
		ProjectID: marker.ProjectID,
		DataDir:   config.DataDir,
		RedisAddr: marker.RedisAddr,
		Neo4jURI:  marker.Neo4jURI,
	}, nil
}

// ListProjects returns the project IDs found in the default data directory.
func ListProjects() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}

	dataDir := filepath.Join(homeDir, ".codegraph", "data")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := readMarker(filepath.Join(dataDir, entry.Name())); err != nil {
			continue
		}
		projects = append(projects, entry.Name())
	}

	return projects, nil
}

func readMarker(dataDir string) (projectMarker, error) {
	var marker projectMarker
	data, err := os.ReadFile(filepath.Join(dataDir, markerFileName))
	if err != nil {
		return marker, err
	}
	if err := json.Unmarshal(data, &marker); err != nil {
		return marker, fmt.Errorf("decode project marker: %w", err)
	}
	return marker, nil
}

func writeMarker(dataDir string, marker projectMarker) error {
	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dataDir, markerFileName), data, 0o644)
}
