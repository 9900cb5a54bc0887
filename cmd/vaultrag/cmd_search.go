package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"vaultrag/cmd/vaultrag/internal"
	"vaultrag/internal/chroma"
	"vaultrag/internal/config"
	"vaultrag/internal/ollama"
	"vaultrag/internal/textindex"
)

// handleSearch implements the search subcommand
func handleSearch(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	var mode string
	var topK int
	var jsonOutput, verbose bool

	fs.StringVar(&mode, "mode", "vector", "Retrieval mode: vector or keyword")
	fs.IntVar(&topK, "k", 0, "Number of results to return (default from config)")
	fs.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	fs.BoolVar(&verbose, "v", false, "Verbose output (full chunk text)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    vaultrag search [options] "<query>"

DESCRIPTION:
    Retrieve matching chunks without generating an answer.
    Vector mode embeds the query and asks Chroma for the closest
    chunks; keyword mode runs the query against the local keyword
    index built during vaultrag index.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Similarity search
    vaultrag search "ansible vault password"

    # Keyword search
    vaultrag search -mode keyword "postgres WAL"

    # Get more results
    vaultrag search -k 10 "garden soil"

    # JSON output for scripting
    vaultrag search -json "tax receipts"
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: search query is required\n\n")
		fs.Usage()
		os.Exit(2)
	}
	query := strings.Join(fs.Args(), " ")

	if topK <= 0 {
		topK = cfg.Retrieval.TopK
	}

	switch mode {
	case "vector":
		searchVector(cfg, query, topK, jsonOutput, verbose)
	case "keyword":
		searchKeyword(cfg, query, topK, jsonOutput)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown mode %q (want vector or keyword)\n", mode)
		os.Exit(2)
	}
}

// searchVector embeds the query and retrieves the closest chunks from Chroma.
func searchVector(cfg *config.Config, query string, topK int, jsonOutput, verbose bool) {
	if cfg.Chroma.CollectionID == "" {
		log.Fatalf("No index yet. Run `vaultrag index` first.")
	}

	ctx := context.Background()
	ollamaClient := ollama.NewClient(&cfg.Ollama)

	vector, err := ollamaClient.Embed(ctx, cfg.Ollama.EmbedModel, query)
	if err != nil {
		log.Fatalf("Failed to embed query: %v", err)
	}

	chromaClient := chroma.NewClient(cfg.Chroma.BaseURL)
	docs, err := chromaClient.Query(ctx, cfg.Chroma.Tenant, cfg.Chroma.Database, cfg.Chroma.CollectionID, vector, topK)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	if jsonOutput {
		printJSON(map[string]any{
			"query":   query,
			"mode":    "vector",
			"count":   len(docs),
			"results": docs,
		})
		return
	}

	if len(docs) == 0 {
		fmt.Println("No results found")
		return
	}

	fmt.Printf("Found %d result(s) for: %s\n\n", len(docs), query)
	for i, doc := range docs {
		text := doc
		if !verbose {
			text = textindex.Preview(doc, 200)
		}
		fmt.Printf("%d. %s\n\n", i+1, text)
	}
}

// searchKeyword runs the query against the local keyword index.
func searchKeyword(cfg *config.Config, query string, topK int, jsonOutput bool) {
	textIndexPath, err := internal.TextIndexPath(cfg.Vault.Path)
	if err != nil {
		log.Fatalf("Failed to determine text index path: %v", err)
	}
	idx, err := textindex.Open(textIndexPath)
	if err != nil {
		log.Fatalf("Failed to open text index (run `vaultrag index` first): %v", err)
	}
	defer idx.Close()

	hits, err := idx.Search(query, topK)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	if jsonOutput {
		printJSON(map[string]any{
			"query":   query,
			"mode":    "keyword",
			"count":   len(hits),
			"results": hits,
		})
		return
	}

	if len(hits) == 0 {
		fmt.Println("No results found")
		return
	}

	fmt.Printf("Found %d result(s) for: %s\n\n", len(hits), query)
	for i, hit := range hits {
		fmt.Printf("%d. %s\n", i+1, hit.ID)
		fmt.Printf("   Path:  %s\n", hit.Path)
		if hit.Title != "" {
			fmt.Printf("   Title: %s\n", hit.Title)
		}
		fmt.Printf("   Score: %.3f\n", hit.Score)
		if hit.Preview != "" {
			fmt.Printf("   %s\n", hit.Preview)
		}
		fmt.Println()
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal results: %v", err)
	}
	fmt.Println(string(data))
}
