// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/timelinedb/timeline/internal/command"
	"github.com/timelinedb/timeline/internal/config"
	"github.com/timelinedb/timeline/pkg/log"
)

func main() {
	app := &cli.App{
		Name:  "timelinectl",
		Usage: "inspect and drive a timeline checkpoint store from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "store", Aliases: []string{"s"}, Required: true, Usage: "path to the timeline database file"},
			&cli.StringFlag{Name: "config", Value: "./config.json", Usage: "path to an optional config.json"},
			&cli.StringFlag{Name: "loglevel", Value: "warn", Usage: "debug, info, warn, err"},
		},
		Before: func(c *cli.Context) error {
			if err := config.Init(c.String("config")); err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			log.SetLogLevel(c.String("loglevel"))
			return nil
		},
		Commands: []*cli.Command{
			initCommand(),
			checkpointCommand(),
			branchCommand(),
			statusCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Errorf("%s", err)
		os.Exit(1)
	}
}

// openService binds a command.Service to the --store path, creating
// the file if create is true.
func openService(c *cli.Context, create bool) (*command.Service, error) {
	svc := &command.Service{}
	path := c.String("store")
	if create {
		return svc, svc.CreateStore(path)
	}
	return svc, svc.OpenStore(path)
}
