// Package main provides the ruuvitel daemon: BLE scan -> decode -> dedup
// -> time-series write, plus a forecast fetch -> store -> join -> analyze
// cycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/chrissnell/ruuvitel/internal/app"
	"github.com/chrissnell/ruuvitel/internal/constants"
	"github.com/chrissnell/ruuvitel/internal/log"
)

func main() {
	cfgFile := flag.String("config", "ruuvitel.yaml", "Path to YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ruuvitel %s (%s/%s)\n", constants.Version, runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	application, err := app.New(*cfgFile)
	if err != nil {
		log.Errorf("Failed to initialize ruuvitel: %v", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		log.Errorf("ruuvitel exited with error: %v", err)
		os.Exit(1)
	}
}
