package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
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

// handleAsk implements the ask subcommand
func handleAsk(cfg *config.Config, configPath string, args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	guidance := fs.String("guidance", "", "Extra steering added to the prompt")
	topK := fs.Int("k", 0, "Number of context chunks (default from config)")
	noSave := fs.Bool("no-save", false, "Do not write the answer into the vault")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    vaultrag ask [options] "<question>"

DESCRIPTION:
    Answer a question from the indexed notes. The question is embedded,
    the closest chunks are retrieved from Chroma, and the configured
    Ollama model writes an answer that streams to stdout and into a
    note in the vault.

    When the vault has never been indexed, ask indexes it first.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Ask a question
    vaultrag ask "when did I last repot the ficus?"

    # Steer the answer shape
    vaultrag ask -guidance "answer as a checklist" "moving house todos"

    # Use more context chunks
    vaultrag ask -k 8 "what did the plumber quote?"

    # Print only, keep the vault untouched
    vaultrag ask -no-save "quick sanity check question"
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: question is required\n\n")
		fs.Usage()
		os.Exit(2)
	}
	question := strings.Join(fs.Args(), " ")

	if *topK > 0 {
		cfg.Retrieval.TopK = *topK
	}

	vaultRoot := cfg.Vault.Path
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

	stats, err := led.Stats()
	if err != nil {
		log.Fatalf("Failed to read ledger: %v", err)
	}

	// An existing index is answered against directly; a vault that was never
	// indexed gets indexed on the way.
	fullRun := cfg.Chroma.CollectionID == "" || stats.Documents == 0

	ollamaClient := ollama.NewClient(&cfg.Ollama)
	deps := pipeline.Deps{
		Source:    dir,
		Embedder:  ollamaClient,
		Store:     chroma.NewClient(cfg.Chroma.BaseURL),
		Generator: ollamaGenerator{client: ollamaClient},
	}

	if fullRun {
		fmt.Printf("🏗️  No index yet, indexing vault first: %s\n\n", vaultRoot)
		textIndexPath, err := internal.TextIndexPath(vaultRoot)
		if err != nil {
			log.Fatalf("Failed to determine text index path: %v", err)
		}
		keywordIndex, err := textindex.Create(textIndexPath)
		if err != nil {
			log.Fatalf("Failed to create text index: %v", err)
		}
		defer keywordIndex.Close()
		deps.Indexer = keywordIndex
		deps.Progress = pipeline.NewEmbedProgress(pipeline.DefaultProgressEnabled())
	}

	params := pipelineParams(cfg)
	params.Question = question
	params.Guidance = *guidance

	var note *vault.AnswerNote
	sinks := multiSink{writerSink{w: os.Stdout}}
	if !*noSave {
		notesDir := vaultRoot
		if cfg.Answers.Folder != "" {
			notesDir = filepath.Join(vaultRoot, cfg.Answers.Folder)
		}
		note, err = vault.CreateAnswerNote(notesDir, cfg.Answers.Prefix, question, cfg.Ollama.GenerateModel)
		if err != nil {
			log.Fatalf("Failed to create answer note: %v", err)
		}
		sinks = append(sinks, note)
	}

	orch := pipeline.New(deps)
	started := time.Now()
	ctx := context.Background()

	var res *pipeline.Result
	if fullRun {
		res, err = orch.Run(ctx, params, sinks)
	} else {
		stop := pipeline.StartSpinner(pipeline.DefaultProgressEnabled(), "thinking")
		res, err = orch.Answer(ctx, params, &spinnerSink{stop: stop, inner: sinks})
		stop()
	}

	if note != nil {
		if cerr := note.Close(); cerr != nil && err == nil {
			log.Printf("Warning: failed to finish answer note: %v", cerr)
		}
	}
	if err != nil {
		recordFailedRun(led, "ask", started, err)
		log.Fatalf("Ask failed: %v", err)
	}

	if fullRun {
		if perr := persistIndexResult(cfg, configPath, led, res, "ask", started); perr != nil {
			log.Fatalf("Answer finished but the index could not be recorded: %v", perr)
		}
	} else {
		if _, rerr := led.RecordRun(ledger.Run{
			Kind:       "ask",
			StartedAt:  started,
			FinishedAt: time.Now(),
			Outcome:    "ok",
		}); rerr != nil {
			log.Printf("Warning: failed to record run: %v", rerr)
		}
	}

	// The last fragment rarely carries a newline.
	fmt.Println()
	if res.Warning != nil {
		fmt.Printf("\n⚠️  %v\n", res.Warning)
	}
	if res.Fragments == 0 {
		fmt.Println("\n(The model returned no answer text.)")
	}
	if note != nil {
		fmt.Printf("\n💾 Answer saved to %s\n", note.Path())
	}
}

// spinnerSink stops the wait spinner as soon as the first fragment lands, so
// the spinner never garbles the streamed answer.
type spinnerSink struct {
	stop    func()
	stopped bool
	inner   pipeline.Sink
}

func (s *spinnerSink) Append(fragment string) error {
	if !s.stopped {
		s.stop()
		s.stopped = true
	}
	return s.inner.Append(fragment)
}
