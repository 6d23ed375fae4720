package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"jobboard/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run(os.Stderr))
}

// run loads .env and config, executes the command tree and returns the exit
// code. Diagnostics go to errOut.
func run(errOut io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(errOut, "warning: ignoring .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if path := cfg.TrustedProjectConfigPath; path != "" {
		fmt.Fprintf(errOut, "warning: using trusted project config from %s\n", path)
	}

	err = newRootCmd(cfg).Execute()
	for _, line := range formatCLIError(err) {
		fmt.Fprintln(errOut, line)
	}
	if err != nil {
		return 1
	}
	return 0
}
