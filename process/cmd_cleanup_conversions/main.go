package main

import (
	"flag"
	"fmt"
	"os"

	"predsheet/pkg/config"
	"predsheet/process/cleanup"
)

func main() {
	configPath := flag.String("config", os.Getenv("PREDSHEET_CONFIG"), "optional YAML config file")
	ttl := flag.Duration("ttl", 0, "delete conversions older than this (default from config, 24h)")
	dry := flag.Bool("dry-run", true, "dry-run: don't delete anything")
	flag.Parse()

	if os.Getenv("DB_DSN") == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export and retry")
		os.Exit(2)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	d := *ttl
	if d <= 0 {
		d = cfg.ConversionTTL
	}
	n, err := cleanup.Run(d, *dry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cleanup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("removed %d conversions older than %s\n", n, d)
}
