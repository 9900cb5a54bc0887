package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"vaultrag/cmd/vaultrag/internal"
	"vaultrag/internal/config"
	"vaultrag/internal/ledger"
	"vaultrag/internal/textindex"
)

// handleStatus implements the status subcommand
func handleStatus(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	var jsonOutput bool
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    vaultrag status [options]

DESCRIPTION:
    Show what the ledger knows about the current vault: indexed
    documents, chunk counts, and recent runs.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Show human-readable status
    vaultrag status

    # JSON output
    vaultrag status -json
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	vaultRoot := cfg.Vault.Path

	ledgerPath, err := internal.LedgerPath(vaultRoot)
	if err != nil {
		log.Fatalf("Failed to determine ledger path: %v", err)
	}
	led, err := ledger.Open(ledgerPath)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	defer led.Close()

	stats, err := led.Stats()
	if err != nil {
		log.Fatalf("Failed to read ledger: %v", err)
	}
	runs, err := led.RecentRuns(5)
	if err != nil {
		log.Fatalf("Failed to read runs: %v", err)
	}

	// The keyword index may not exist yet; that is status, not failure.
	keywordChunks := uint64(0)
	keywordOK := false
	if textIndexPath, err := internal.TextIndexPath(vaultRoot); err == nil {
		if idx, err := textindex.Open(textIndexPath); err == nil {
			if n, err := idx.DocCount(); err == nil {
				keywordChunks = n
				keywordOK = true
			}
			idx.Close()
		}
	}

	lastIndexed := "never"
	if !stats.LastIndexed.IsZero() {
		lastIndexed = stats.LastIndexed.Format("2006-01-02 15:04:05")
	}

	if jsonOutput {
		runList := make([]map[string]any, 0, len(runs))
		for _, r := range runs {
			runList = append(runList, map[string]any{
				"id":          r.ID,
				"kind":        r.Kind,
				"started_at":  r.StartedAt,
				"finished_at": r.FinishedAt,
				"documents":   r.Documents,
				"chunks":      r.Chunks,
				"outcome":     r.Outcome,
			})
		}
		status := map[string]any{
			"vault":          vaultRoot,
			"collection":     cfg.Chroma.Collection,
			"collection_id":  cfg.Chroma.CollectionID,
			"documents":      stats.Documents,
			"chunks":         stats.Chunks,
			"keyword_chunks": keywordChunks,
			"last_indexed":   lastIndexed,
			"runs":           runList,
		}
		printJSON(status)
		return
	}

	fmt.Println("📊 Vault Status")
	fmt.Println()
	fmt.Printf("Vault:          %s\n", vaultRoot)
	if cfg.Chroma.CollectionID != "" {
		fmt.Printf("Collection:     %s (%s)\n", cfg.Chroma.Collection, cfg.Chroma.CollectionID)
	} else {
		fmt.Printf("Collection:     %s (not provisioned yet)\n", cfg.Chroma.Collection)
	}
	fmt.Printf("Documents:      %6d\n", stats.Documents)
	fmt.Printf("Chunks:         %6d\n", stats.Chunks)
	if keywordOK {
		fmt.Printf("Keyword chunks: %6d\n", keywordChunks)
	} else {
		fmt.Printf("Keyword chunks:   none\n")
	}
	fmt.Printf("Last indexed:   %s\n", lastIndexed)

	if len(runs) > 0 {
		fmt.Println()
		fmt.Println("Recent runs:")
		for _, r := range runs {
			fmt.Printf("  %s  %-6s %4d docs %5d chunks  %s\n",
				r.StartedAt.Format("2006-01-02 15:04"), r.Kind, r.Documents, r.Chunks, r.Outcome)
		}
	}
}
