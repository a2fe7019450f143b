// Package cmd implements the panelkit CLI commands.
//
// The command structure follows standard Go CLI patterns with a root command
// that dispatches to subcommands (validate, list, open, demo). Each
// subcommand parses its own flags with pflag.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/pflag"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command represents a CLI command.
type Command struct {
	Name  string
	Short string
	Long  string
	Usage string
	// Flags declares the command's flags on fs before parsing.
	Flags func(fs *pflag.FlagSet)
	Run   func(fs *pflag.FlagSet, args []string) error
}

var rootCmd = struct {
	Long  string
	Usage string
}{
	Long: `panelkit checks and exercises panel-based UI projects.

A project is a directory with a ui.yaml describing its panels and the
YAML templates they instantiate.

Use "panelkit <command> --help" for more information about a command.`,
	Usage: "panelkit <command> [flags]",
}

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
}

// Execute runs the CLI with the given arguments.
func Execute(args []string) error {
	global := pflag.NewFlagSet("panelkit", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)
	help := global.BoolP("help", "h", false, "show help")
	version := global.BoolP("version", "v", false, "show version information")

	if err := global.Parse(args); err != nil {
		printHelp()
		return err
	}
	if *version {
		fmt.Fprintf(stdout, "panelkit version %s (built %s)\n", Version, BuildTime)
		return nil
	}
	args = global.Args()
	if *help || len(args) == 0 || args[0] == "help" {
		printHelp()
		return nil
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmdName)
		printHelp()
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	fs := pflag.NewFlagSet(cmd.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if cmd.Flags != nil {
		cmd.Flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printCommandHelp(cmd, fs)
			return nil
		}
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return cmd.Run(fs, fs.Args())
}

func printHelp() {
	fmt.Fprintln(stdout, rootCmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", rootCmd.Usage)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(stdout, "  %-14s %s\n", name, commands[name].Short)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Flags:")
	fmt.Fprintln(stdout, "  -h, --help           Show help for a command")
	fmt.Fprintln(stdout, "  -v, --version        Show version information")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Environment:")
	fmt.Fprintln(stdout, "  PANELKIT_CONFIG      Configuration file (default: <dir>/ui.yaml)")
	fmt.Fprintln(stdout, "  PANELKIT_ASSETS      Asset directory (default: <dir>)")
	fmt.Fprintln(stdout, "  PANELKIT_PREFS       Preference file (default: in memory)")
	fmt.Fprintln(stdout, "  PANELKIT_VERBOSE     Log stack traces with errors")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Examples:")
	fmt.Fprintln(stdout, "  panelkit validate --dir ./game   Check config and templates")
	fmt.Fprintln(stdout, "  panelkit open Login              Open a panel headlessly and print its tree")
	fmt.Fprintln(stdout, "  panelkit demo                    Run the built-in login walkthrough")
}

func printCommandHelp(cmd *Command, fs *pflag.FlagSet) {
	fmt.Fprintln(stdout, cmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", cmd.Usage)
	if fs.HasFlags() {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Flags:")
		fmt.Fprint(stdout, fs.FlagUsages())
	}
}
