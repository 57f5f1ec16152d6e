package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wowcore/wowcore/internal"
	"github.com/wowcore/wowcore/internal/core"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the auth server (the default command)",
	Run:   ServerCommand,
}

// loadConfig reads the config file and changes to its directory so that any
// relative paths in the config file will resolve.
func loadConfig() *core.Config {
	config, err := core.LoadConfig(ConfigFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := os.Chdir(ConfigFlag); err != nil {
		fmt.Println("error changing to config directory:", err)
		os.Exit(1)
	}
	return config
}

func ServerCommand(cmd *cobra.Command, args []string) {
	config := loadConfig()
	fmt.Println("using configuration directory:", ConfigFlag)

	// Ctrl-C or SIGTERM shuts the servers down gracefully; a second signal kills the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
		fmt.Println("waiting to shut down gracefully...")
	}()

	controller := &internal.Controller{Config: config}
	if err := controller.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Println(err)
		os.Exit(1)
	}
}
