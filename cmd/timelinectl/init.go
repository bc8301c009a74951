// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "create a new, empty timeline store",
		Action: func(c *cli.Context) error {
			svc, err := openService(c, true)
			if err != nil {
				return err
			}
			defer svc.Close()
			fmt.Printf("created store %s\n", c.String("store"))
			return nil
		},
	}
}
