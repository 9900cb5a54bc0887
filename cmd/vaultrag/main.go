package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"vaultrag/cmd/vaultrag/internal"
	"vaultrag/internal/config"
)

func main() {
	// A .env next to the working directory may carry endpoint overrides.
	// Absence is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		internal.PrintUsage()
		os.Exit(1)
	}

	// Parse global flags and find subcommand
	configPath := ""
	vaultPath := ""
	args := os.Args[1:]

	// Handle special flags that don't require subcommand
	for _, arg := range args {
		if arg == "-h" || arg == "-help" || arg == "--help" {
			internal.PrintUsage()
			os.Exit(0)
		}
		if arg == "-v" || arg == "-version" || arg == "--version" {
			fmt.Printf("vaultrag version %s\n", internal.Version)
			os.Exit(0)
		}
	}

	// Find the subcommand (first non-flag argument that is a valid subcommand)
	validSubcommands := map[string]bool{
		"index":  true,
		"ask":    true,
		"search": true,
		"status": true,
		"config": true,
	}

	subcommandIndex := -1
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			// Check if this is a known subcommand
			if validSubcommands[arg] {
				subcommandIndex = i
				break
			}
			// Not a known subcommand, might be a value for a flag
		}
	}

	if subcommandIndex == -1 {
		fmt.Fprintf(os.Stderr, "Error: No subcommand specified\n\n")
		internal.PrintUsage()
		os.Exit(2)
	}

	// Parse global flags (before subcommand)
	globalFlags := args[:subcommandIndex]
	for i := 0; i < len(globalFlags); i++ {
		flag := globalFlags[i]
		if flag == "-config" || flag == "--config" {
			if i+1 < len(globalFlags) {
				configPath = globalFlags[i+1]
				i++ // skip next arg
			}
		} else if flag == "-vault" || flag == "--vault" {
			if i+1 < len(globalFlags) {
				vaultPath = globalFlags[i+1]
				i++ // skip next arg
			}
		} else if strings.HasPrefix(flag, "-") {
			fmt.Fprintf(os.Stderr, "Error: Unknown global flag: %s\n\n", flag)
			internal.PrintUsage()
			os.Exit(2)
		}
	}

	subcommand := args[subcommandIndex]
	subcommandArgs := args[subcommandIndex+1:]

	// Load configuration
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		if config.IsConfigNotFound(err) {
			switch subcommand {
			case "config":
				// The config subcommand exists to fix exactly this state.
				cfg = config.Default()
			case "index":
				if notFoundErr, ok := err.(*config.ConfigNotFoundError); ok {
					created, createErr := config.WriteDefaultTemplate(notFoundErr.RequestedPath)
					if createErr != nil {
						fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
						fmt.Fprintf(os.Stderr, "Also failed to create default config at %s: %v\n\n", notFoundErr.RequestedPath, createErr)
						internal.PrintConfigExample()
						os.Exit(1)
					}
					if created {
						fmt.Fprintf(os.Stderr, "Created default config at %s\n", notFoundErr.RequestedPath)
					}
					fmt.Fprintln(os.Stderr, "Please point vault.path at your notes in the config file and rerun `vaultrag index`.")
					os.Exit(1)
				}
				fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
				os.Exit(1)
			default:
				fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
				internal.PrintConfigExample()
				os.Exit(1)
			}
		} else {
			log.Fatalf("Failed to load config: %v\n", err)
		}
	}

	// Override vault path if specified
	if vaultPath != "" {
		cfg.Vault.Path = vaultPath
	}

	vaultRoot, err := internal.ResolveVaultRoot(cfg.Vault.Path)
	if err != nil {
		log.Fatalf("Failed to resolve vault root: %v\n", err)
	}
	cfg.Vault.Path = vaultRoot

	if subcommand != "config" {
		if err := internal.SetupLogging(subcommand, vaultRoot); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize log file: %v\n", err)
		}
	}

	// Execute subcommand
	switch subcommand {
	case "index":
		handleIndex(cfg, configPath, subcommandArgs)
	case "ask":
		handleAsk(cfg, configPath, subcommandArgs)
	case "search":
		handleSearch(cfg, subcommandArgs)
	case "status":
		handleStatus(cfg, subcommandArgs)
	case "config":
		handleConfig(cfg, configPath, subcommandArgs)
	default:
		fmt.Printf("Unknown subcommand: %s\n\n", subcommand)
		internal.PrintUsage()
		os.Exit(2)
	}
}
