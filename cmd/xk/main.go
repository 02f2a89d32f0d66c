package main

import (
	"fmt"
	"os"

	"xknowledge/internal/app"
	"xknowledge/internal/config"
	"xknowledge/pkg/log"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// needsStore reports whether the command line runs a command backed by the
// record store. Help, version and extract run without opening it.
func needsStore(args []string) bool {
	if len(args) < 2 {
		return false
	}
	switch args[1] {
	case "extract", "help", "h", "--help", "-h", "--version", "-v":
		return false
	}
	return true
}

func main() {
	if !needsStore(os.Args) {
		if err := newCLIApp(nil).Run(os.Args); err != nil {
			exit(err)
		}
		return
	}

	cfg := config.Load()
	logger, closeLogger := app.NewLogger(cfg, true)
	log.SetDefault(logger)

	a, err := app.New(cfg, logger)
	if err != nil {
		closeLogger()
		fmt.Fprintf(os.Stderr, "error: failed to initialize: %v\n", err)
		os.Exit(1)
	}

	err = newCLIApp(a).Run(os.Args)
	a.Close()
	closeLogger()
	if err != nil {
		exit(err)
	}
}

// exit prints err and leaves with its exit code, 1 when it carries none.
func exit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	code := 1
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		code = coder.ExitCode()
	}
	os.Exit(code)
}
