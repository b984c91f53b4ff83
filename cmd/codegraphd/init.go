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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codegraph/internal/bootstrap"
	"github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/ui"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force          bool
	nonInteractive bool
	projectID      string
}

// runInit executes the 'init' command, writing a .codegraph/project.yaml
// configuration file and registering the project with the bootstrap layer.
func runInit(args []string, globals GlobalFlags) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot access working directory",
			"Failed to determine current directory path",
			"This is unexpected. Please report this issue if it persists",
			err,
		), globals.JSON)
	}

	configPath := ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !flags.force {
		errors.FatalError(errors.NewInputError(
			"Configuration already exists",
			fmt.Sprintf("%s already exists in this directory", configPath),
			"Use 'codegraphd init --force' to overwrite the existing configuration",
		), globals.JSON)
	}

	projectID := flags.projectID
	if projectID == "" {
		projectID = filepath.Base(cwd)
	}

	cfg := DefaultConfig(projectID, cwd)

	if !flags.nonInteractive {
		reader := bufio.NewReader(os.Stdin)
		runInteractiveConfig(reader, cfg)
	}

	if err := SaveConfig(cfg, configPath); err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if _, err := bootstrap.InitProject(bootstrap.ProjectConfig{
		ProjectID: cfg.ProjectID,
		RedisAddr: cfg.RedisAddr,
		Neo4jURI:  cfg.Neo4jURI,
	}, nil); err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if !globals.Quiet {
		ui.Success(fmt.Sprintf("Created %s", configPath))
		printInitNextSteps()
	}
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite existing configuration")
	yes := fs.BoolP("yes", "y", false, "Non-interactive mode, use all defaults")
	projectID := fs.String("project-id", "", "Project identifier (default: directory name)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraphd init [options]

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	return initFlags{force: *force, nonInteractive: *yes, projectID: *projectID}
}

func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	ui.Header("Configuring Code Graph Engine project")
	cfg.RedisAddr = prompt(reader, "Redis address (cache + CDC backend)", cfg.RedisAddr)
	cfg.Neo4jURI = prompt(reader, "Neo4j bolt URI (blank to skip external sync)", cfg.Neo4jURI)
	if cfg.Neo4jURI != "" {
		cfg.Neo4jUser = prompt(reader, "Neo4j username", cfg.Neo4jUser)
	}
}

func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

func printInitNextSteps() {
	fmt.Println()
	fmt.Println(ui.Label("Next steps:"))
	fmt.Println("  codegraphd index    Analyze the project and build the code graph")
	fmt.Println("  codegraphd status   Check indexing progress")
}
