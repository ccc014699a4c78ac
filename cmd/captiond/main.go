package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"captiond/internal/artifacts"
	"captiond/internal/config"
	"captiond/internal/daemon"
	"captiond/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	writeConfig := flag.Bool("write-config", false, "write a sample configuration file and exit")
	flag.Parse()

	if *writeConfig {
		target := *configPath
		if target == "" {
			target = config.DefaultConfigPath()
		}
		if err := config.WriteSample(target); err != nil {
			log.Fatalf("write config: %v", err)
		}
		fmt.Printf("sample configuration written to %s\n", target)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, path, loaded, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	if loaded {
		logger.Info("configuration loaded", logging.String("path", path))
	} else {
		logger.Info("configuration file absent, using defaults", logging.String("path", path))
	}

	store, err := artifacts.Open(ctx, cfg.DatabasePath())
	if err != nil {
		logger.Error("open artifact store", logging.Error(err))
		os.Exit(1)
	}

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	d.Stop()
}
