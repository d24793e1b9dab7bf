package main

import (
	"fmt"
	"log"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/secs-dev/vtfs/drivers/ramfs"
	"github.com/urfave/cli/v2"
)

func main() {
	defaults := ramfs.DefaultOptions()

	cli := cli.App{
		Name:  "vtfs",
		Usage: "Exercise a bounded in-memory file store",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:    "max-inodes",
				Usage:   "number of files and directories besides the root",
				Value:   defaults.MaxInodes,
				EnvVars: []string{"VTFS_MAX_INODES"},
			},
			&cli.UintFlag{
				Name:    "max-entries",
				Usage:   "number of directory entries (names)",
				Value:   defaults.MaxEntries,
				EnvVars: []string{"VTFS_MAX_ENTRIES"},
			},
			&cli.Int64Flag{
				Name:    "max-file-size",
				Usage:   "capacity of each file, in bytes",
				Value:   defaults.MaxFileSize,
				EnvVars: []string{"VTFS_MAX_FILE_SIZE"},
			},
			&cli.UintFlag{
				Name:    "max-name-length",
				Usage:   "longest allowed name, in bytes",
				Value:   defaults.MaxNameLength,
				EnvVars: []string{"VTFS_MAX_NAME_LENGTH"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn, error",
				Value:   "error",
				EnvVars: []string{"VTFS_LOG_LEVEL"},
			},
		},
		Before: configureLogging,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Run a script of shell commands against a fresh store",
				Action:    runScript,
				ArgsUsage: "[SCRIPT_FILE]",
			},
			{
				Name:   "demo",
				Usage:  "Walk through hard links and capacity limits",
				Action: runDemo,
			},
		},
	}

	err := cli.Run(os.Args)
	if err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func configureLogging(context *cli.Context) error {
	level := context.String("log-level")
	if err := logging.SetLogLevel("*", level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return nil
}

// optionsFromFlags builds the store configuration from the global flags.
func optionsFromFlags(context *cli.Context) ramfs.Options {
	return ramfs.Options{
		MaxInodes:     context.Uint("max-inodes"),
		MaxEntries:    context.Uint("max-entries"),
		MaxFileSize:   context.Int64("max-file-size"),
		MaxNameLength: context.Uint("max-name-length"),
	}
}

func runScript(context *cli.Context) error {
	if context.NArg() > 1 {
		return cli.Exit("expected at most one script file", 2)
	}

	shell, err := NewShell(optionsFromFlags(context), context.App.Writer)
	if err != nil {
		return err
	}

	input := os.Stdin
	if context.NArg() == 1 {
		input, err = os.Open(context.Args().First())
		if err != nil {
			return err
		}
		defer input.Close()
	}
	return shell.Run(input)
}

func runDemo(context *cli.Context) error {
	return Demo(optionsFromFlags(context), context.App.Writer)
}
