package cmd

import (
	"os"

	"github.com/urfave/cli/v2"
)

const ServiceName = "bizcard"

// Run executes the command line application
func Run() error {
	app := &cli.App{
		Name:     ServiceName,
		Usage:    "Business card scanning service",
		Version:  Version(),
		Commands: commands,
	}
	return app.Run(os.Args)
}

var commands []*cli.Command

// Register adds subcommands; packages call it from init.
func Register(cmds ...*cli.Command) {
	commands = append(commands, cmds...)
}
