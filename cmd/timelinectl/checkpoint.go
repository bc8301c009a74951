// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func checkpointCommand() *cli.Command {
	return &cli.Command{
		Name:  "checkpoint",
		Usage: "create, list, restore and export checkpoints",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "parse a host file and record it as a new checkpoint",
				ArgsUsage: "<name> <path-to-file>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("expected <name> <path-to-file>")
					}
					name, path := c.Args().Get(0), c.Args().Get(1)

					raw, err := os.ReadFile(path)
					if err != nil {
						return err
					}

					svc, err := openService(c, false)
					if err != nil {
						return err
					}
					defer svc.Close()

					cp, err := svc.CreateCheckpoint(name, raw)
					if err != nil {
						return err
					}
					fmt.Printf("%s  %s\n", cp.ID, cp.Name)
					return nil
				},
			},
			{
				Name:      "list",
				Usage:     "list checkpoints on a branch, newest first",
				ArgsUsage: "<branch>",
				Action: func(c *cli.Context) error {
					branch := c.Args().First()
					if branch == "" {
						branch = "main"
					}

					svc, err := openService(c, false)
					if err != nil {
						return err
					}
					defer svc.Close()

					checkpoints, err := svc.ListCheckpoints(branch)
					if err != nil {
						return err
					}
					for _, cp := range checkpoints {
						fmt.Printf("%s  %s  %s\n", cp.ID, cp.CreatedAt.Format("2006-01-02T15:04:05"), cp.Name)
					}
					return nil
				},
			},
			{
				Name:      "restore",
				Usage:     "move current to a checkpoint and write its file bytes out",
				ArgsUsage: "<checkpoint-id> <out-path>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("expected <checkpoint-id> <out-path>")
					}
					id, out := c.Args().Get(0), c.Args().Get(1)

					svc, err := openService(c, false)
					if err != nil {
						return err
					}
					defer svc.Close()

					raw, err := svc.RestoreCheckpoint(id)
					if err != nil {
						return err
					}
					return os.WriteFile(out, raw, 0o644)
				},
			},
			{
				Name:      "export",
				Usage:     "write a checkpoint's file bytes out without changing current",
				ArgsUsage: "<checkpoint-id> <out-path>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("expected <checkpoint-id> <out-path>")
					}
					id, out := c.Args().Get(0), c.Args().Get(1)

					svc, err := openService(c, false)
					if err != nil {
						return err
					}
					defer svc.Close()

					raw, err := svc.ExportCheckpoint(id)
					if err != nil {
						return err
					}
					return os.WriteFile(out, raw, 0o644)
				},
			},
		},
	}
}
