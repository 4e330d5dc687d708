package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

// set with -ldflags "-X bizcard/cmd.version=..."
var (
	version        = "0.0.0"
	commit         = "hash"
	branch         = "branch"
	buildTimestamp = ""
)

func Version() string {
	return version
}

func FullVersion() string {
	return fmt.Sprintf("%s-%s-%s-%s",
		version, branch, buildTimestamp, commit,
	)
}

func init() {
	switch branch {
	case "branch", "":
		branch = "dev"
	}
	switch commit {
	case "hash", "":
		commit = "000000000000"
	}
	if buildTimestamp == "" {
		buildTimestamp = time.Now().UTC().Format("20060102150405")
	}

	Register(&cli.Command{
		Name:  "version",
		Usage: "Print build version & exit",
		Action: func(_ *cli.Context) error {
			fmt.Println(FullVersion())
			return nil
		},
	})
}
