package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spaghettifunk/vktriangle/engine"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", engine.DefaultConfigPath, "path to the TOML configuration")
	validation := flag.Bool("validation", false, "force the Vulkan validation layer on")
	noValidation := flag.Bool("no-validation", false, "force the Vulkan validation layer off")
	flag.Parse()

	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	config, err := engine.LoadConfig(*configPath, explicit)
	if err != nil {
		return err
	}
	if *validation {
		config.Renderer.Validation = true
	}
	if *noValidation {
		config.Renderer.Validation = false
	}

	e, err := engine.New(config)
	if err != nil {
		return err
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case sig := <-sigCh:
			core.LogInfo("Received %s, closing window.", sig)
			e.RequestShutdown()
		case <-done:
		}
	}()
	// the watcher is gone before Shutdown releases the window
	stopSignals := func() {
		signal.Stop(sigCh)
		close(done)
		wg.Wait()
	}

	if err := e.Initialize(); err != nil {
		stopSignals()
		_ = e.Shutdown()
		return err
	}

	runErr := e.Run()
	stopSignals()
	if err := e.Shutdown(); err != nil && runErr == nil {
		return err
	}
	return runErr
}
