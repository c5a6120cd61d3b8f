// wds-pipeline ingests and harmonizes Statistics Canada's Web Data
// Service catalogue: spine, cube, and metadata fetch pipelines, a content-
// addressed store, and a cross-cube dimension registry builder.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/statcan/wds-pipeline/cmd/wds-pipeline/commands"
)

func main() {
	app := cli.NewApp()
	app.Name = "wds-pipeline"
	app.Usage = "fetch, store, and harmonize Statistics Canada WDS cube metadata"
	app.Commands = commands.Commands

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
