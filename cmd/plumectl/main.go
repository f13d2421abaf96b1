// Command plumectl replays recorded host command scripts through the effects
// bridge and exports recorded flights.
package main

import (
	"fmt"
	"os"
	"strings"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	Version   string = "0.1.0"
	BuildDate string = "unknown"

	AppName string = "plumectl"
)

const usage = `usage:
  plumectl replay <script> [configDir]
  plumectl export <sqlite file|postgres> <outputDir> <flightID>... [--config dir]
  plumectl version`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given\n%s", usage)
	}

	switch strings.ToLower(args[0]) {
	case "replay":
		if len(args) < 2 {
			return fmt.Errorf("replay needs a script\n%s", usage)
		}
		configDir := "."
		if len(args) > 2 {
			configDir = args[2]
		}
		return runReplay(args[1], configDir)

	case "export":
		return runExport(args[1:])

	case "version":
		fmt.Printf("%s %s (built %s)\n", AppName, Version, BuildDate)
		return nil

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}
