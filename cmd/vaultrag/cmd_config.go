package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"vaultrag/internal/config"
)

// handleConfig implements the config subcommand
func handleConfig(cfg *config.Config, configPath string, args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	initFlag := fs.Bool("init", false, "Write a config template if none exists")
	showFlag := fs.Bool("show", false, "Print the effective configuration")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    vaultrag config [options]

DESCRIPTION:
    Create or inspect the configuration file. Without options the
    effective configuration is printed, defaults filled in.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Write a starter config
    vaultrag config -init

    # Show the effective configuration
    vaultrag config -show
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	path := configPath
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			log.Fatalf("Failed to determine config path: %v", err)
		}
		path = defaultPath
	}

	if *initFlag {
		created, err := config.WriteDefaultTemplate(path)
		if err != nil {
			log.Fatalf("Failed to write config template: %v", err)
		}
		if created {
			fmt.Printf("Created config template at %s\n", path)
			fmt.Println("Point vault.path at your notes and run `vaultrag index`.")
		} else {
			fmt.Printf("Config already exists at %s (left untouched)\n", path)
		}
		return
	}

	_ = *showFlag // showing is also the default behavior

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("# No config file at %s (showing defaults; run `vaultrag config -init`)\n", path)
	} else {
		fmt.Printf("# Effective configuration from %s\n", path)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		log.Fatalf("Failed to marshal config: %v", err)
	}
	os.Stdout.Write(data)
}
