package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"vaultrag/cmd/vaultrag/internal"
	"vaultrag/internal/chroma"
	"vaultrag/internal/config"
	"vaultrag/internal/ledger"
	"vaultrag/internal/ollama"
	"vaultrag/internal/pipeline"
	"vaultrag/internal/textindex"
	"vaultrag/internal/vault"
)

// handleIndex implements the index subcommand
func handleIndex(cfg *config.Config, configPath string, args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	force := fs.Bool("force", false, "Rebuild even when no document changed")
	workers := fs.Int("workers", 0, "Parallel embedding requests (default from config)")
	var exclude internal.StringList
	fs.Var(&exclude, "exclude", "Extra exclude pattern (can be specified multiple times)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    vaultrag index [options]

DESCRIPTION:
    Build the retrieval index for a vault.
    This will:
      1. Scan the vault for markdown, text, and PDF documents
      2. Cut each document into overlapping chunks
      3. Embed every chunk with the configured Ollama model
      4. Load the chunks into the Chroma collection
      5. Mirror the chunks into a local keyword index

    When nothing changed since the last run the whole run is skipped.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Index the configured vault
    vaultrag index

    # Index a specific directory
    vaultrag -vault ~/notes index

    # Rebuild even when nothing changed
    vaultrag index -force

    # Leave drafts out of the index
    vaultrag index -exclude "drafts/**"
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if *workers > 0 {
		cfg.Indexing.Workers = *workers
	}
	cfg.Vault.Exclude = append(cfg.Vault.Exclude, exclude...)

	vaultRoot := cfg.Vault.Path
	if _, err := os.Stat(vaultRoot); os.IsNotExist(err) {
		log.Fatalf("Vault path does not exist: %s", vaultRoot)
	}

	dir := vaultDir(cfg)

	ledgerPath, err := internal.LedgerPath(vaultRoot)
	if err != nil {
		log.Fatalf("Failed to determine ledger path: %v", err)
	}
	led, err := ledger.Open(ledgerPath)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	defer led.Close()

	// Skip the run when the vault matches the ledger and the collection is
	// already known. Chunk ids are ordinal across the whole vault, so any
	// change means a full rebuild.
	if !*force && cfg.Chroma.CollectionID != "" {
		docs, err := dir.Scan()
		if err != nil {
			log.Fatalf("Failed to scan vault: %v", err)
		}
		entries, err := led.Documents()
		if err != nil {
			log.Fatalf("Failed to read ledger: %v", err)
		}
		if len(entries) > 0 && !vaultChanged(docs, entries) {
			fmt.Printf("✅ Index is up to date (%d documents). Use -force to rebuild.\n", len(entries))
			return
		}
	}

	fmt.Printf("🏗️  Indexing vault: %s\n\n", vaultRoot)

	textIndexPath, err := internal.TextIndexPath(vaultRoot)
	if err != nil {
		log.Fatalf("Failed to determine text index path: %v", err)
	}
	keywordIndex, err := textindex.Create(textIndexPath)
	if err != nil {
		log.Fatalf("Failed to create text index: %v", err)
	}
	defer keywordIndex.Close()

	ollamaClient := ollama.NewClient(&cfg.Ollama)

	orch := pipeline.New(pipeline.Deps{
		Source:    dir,
		Embedder:  ollamaClient,
		Store:     chroma.NewClient(cfg.Chroma.BaseURL),
		Generator: ollamaGenerator{client: ollamaClient},
		Indexer:   keywordIndex,
		Progress:  pipeline.NewEmbedProgress(pipeline.DefaultProgressEnabled()),
	})

	started := time.Now()
	ctx := context.Background()

	res, err := orch.Index(ctx, pipelineParams(cfg))
	if err != nil {
		recordFailedRun(led, "index", started, err)
		log.Fatalf("Indexing failed: %v", err)
	}

	if err := persistIndexResult(cfg, configPath, led, res, "index", started); err != nil {
		log.Fatalf("Indexing finished but could not be recorded: %v", err)
	}

	duration := time.Since(started)

	fmt.Println()
	fmt.Println("✅ Indexing completed successfully!")
	if res.Warning != nil {
		fmt.Printf("\n⚠️  %v\n", res.Warning)
	}
	fmt.Printf("\n⏱️  Duration: %v\n", duration)
	fmt.Println("\n📊 Statistics:")
	fmt.Printf("   Documents:  %6d\n", len(res.Docs))
	fmt.Printf("   Chunks:     %6d\n", res.ChunkCount)
	fmt.Printf("   Collection: %s\n", res.CollectionID)
}

// vaultChanged reports whether the scanned documents differ from the
// ledger's record by relative path, size, or mtime.
func vaultChanged(docs []vault.Document, entries []ledger.DocumentEntry) bool {
	if len(docs) != len(entries) {
		return true
	}
	known := make(map[string]ledger.DocumentEntry, len(entries))
	for _, e := range entries {
		known[e.Rel] = e
	}
	for _, d := range docs {
		e, ok := known[d.Rel]
		if !ok || e.Size != d.Size || e.Mtime.Unix() != d.Mtime.Unix() {
			return true
		}
	}
	return false
}
