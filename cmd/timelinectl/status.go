// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show the currently checked-out branch and checkpoint",
		Action: func(c *cli.Context) error {
			svc, err := openService(c, false)
			if err != nil {
				return err
			}
			defer svc.Close()

			current, branchName, err := svc.CurrentState()
			if err != nil {
				return err
			}

			fmt.Printf("branch: %s\n", branchName)
			if current.CheckpointHash != nil {
				fmt.Printf("checkpoint: %s\n", *current.CheckpointHash)
			} else {
				fmt.Println("checkpoint: (none)")
			}
			return nil
		},
	}
}
