// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func branchCommand() *cli.Command {
	return &cli.Command{
		Name:  "branch",
		Usage: "create, list, switch and delete branches",
		Subcommands: []*cli.Command{
			{
				Name: "list",
				Action: func(c *cli.Context) error {
					svc, err := openService(c, false)
					if err != nil {
						return err
					}
					defer svc.Close()

					branches, err := svc.ListBranches()
					if err != nil {
						return err
					}
					for _, b := range branches {
						tip := "(empty)"
						if b.Tip != nil {
							tip = *b.Tip
						}
						fmt.Printf("%-20s %s\n", b.Name, tip)
					}
					return nil
				},
			},
			{
				Name:      "create",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						return fmt.Errorf("expected <name>")
					}

					svc, err := openService(c, false)
					if err != nil {
						return err
					}
					defer svc.Close()

					b, err := svc.CreateBranch(name)
					if err != nil {
						return err
					}
					fmt.Printf("created branch %s\n", b.Name)
					return nil
				},
			},
			{
				Name:      "switch",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						return fmt.Errorf("expected <name>")
					}

					svc, err := openService(c, false)
					if err != nil {
						return err
					}
					defer svc.Close()

					if _, err := svc.SwitchBranch(name); err != nil {
						return err
					}
					fmt.Printf("switched to %s\n", name)
					return nil
				},
			},
			{
				Name:      "delete",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						return fmt.Errorf("expected <name>")
					}

					svc, err := openService(c, false)
					if err != nil {
						return err
					}
					defer svc.Close()

					return svc.DeleteBranch(name)
				},
			},
		},
	}
}
