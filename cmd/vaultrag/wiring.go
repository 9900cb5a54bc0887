package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"vaultrag/cmd/vaultrag/internal"
	"vaultrag/internal/config"
	"vaultrag/internal/ledger"
	"vaultrag/internal/ollama"
	"vaultrag/internal/pipeline"
	"vaultrag/internal/vault"
)

// ollamaGenerator adapts the concrete Ollama stream type to the pipeline's
// generator interface.
type ollamaGenerator struct {
	client *ollama.Client
}

func (g ollamaGenerator) Generate(ctx context.Context, model, prompt string) (pipeline.FragmentStream, error) {
	stream, err := g.client.Generate(ctx, model, prompt)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// writerSink appends fragments to an io.Writer.
type writerSink struct {
	w io.Writer
}

func (s writerSink) Append(fragment string) error {
	_, err := io.WriteString(s.w, fragment)
	return err
}

// multiSink fans each fragment out to every sink in order.
type multiSink []pipeline.Sink

func (m multiSink) Append(fragment string) error {
	for _, s := range m {
		if err := s.Append(fragment); err != nil {
			return err
		}
	}
	return nil
}

// vaultDir builds the document source for the configured vault. The answer
// folder is kept out of the corpus so retrieval never feeds on generated
// output.
func vaultDir(cfg *config.Config) *vault.Dir {
	exclude := append([]string(nil), cfg.Vault.Exclude...)
	if cfg.Answers.Folder != "" {
		exclude = append(exclude, cfg.Answers.Folder+"/**")
	}
	return &vault.Dir{Root: cfg.Vault.Path, Exclude: exclude}
}

// pipelineParams maps the loaded config onto one run's parameters.
func pipelineParams(cfg *config.Config) pipeline.Params {
	return pipeline.Params{
		EmbedModel:    cfg.Ollama.EmbedModel,
		GenerateModel: cfg.Ollama.GenerateModel,
		Tenant:        cfg.Chroma.Tenant,
		Database:      cfg.Chroma.Database,
		Collection:    cfg.Chroma.Collection,
		CollectionID:  cfg.Chroma.CollectionID,
		ChunkSize:     cfg.Chunking.Size,
		ChunkOverlap:  cfg.Chunking.Overlap,
		TopK:          cfg.Retrieval.TopK,
		Workers:       cfg.Indexing.Workers,
		Instruction:   cfg.Answers.Prompt,
	}
}

// persistIndexResult records a finished index phase: the ledger's document
// rows, a run entry, and the resolved collection id written back to the
// config file so later runs skip re-provisioning.
func persistIndexResult(cfg *config.Config, configPath string, led *ledger.Store, res *pipeline.Result, kind string, started time.Time) error {
	now := time.Now()
	entries := make([]ledger.DocumentEntry, 0, len(res.Docs))
	for _, d := range res.Docs {
		entries = append(entries, ledger.DocumentEntry{
			Rel:       d.Rel,
			Size:      d.Size,
			Mtime:     d.Mtime,
			Chunks:    d.Chunks,
			IndexedAt: now,
		})
	}
	if err := led.ReplaceDocuments(entries); err != nil {
		return fmt.Errorf("failed to update ledger: %w", err)
	}

	if _, err := led.RecordRun(ledger.Run{
		Kind:       kind,
		StartedAt:  started,
		FinishedAt: now,
		Documents:  len(res.Docs),
		Chunks:     res.ChunkCount,
		Outcome:    "ok",
	}); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	if res.CollectionID != "" && res.CollectionID != cfg.Chroma.CollectionID {
		cfg.Chroma.CollectionID = res.CollectionID
		if err := internal.SaveConfig(cfg, configPath); err != nil {
			return fmt.Errorf("failed to save collection id: %w", err)
		}
		log.Printf("Saved collection id %s to config", res.CollectionID)
	}
	return nil
}

// recordFailedRun notes a run that did not finish. Ledger trouble here must
// not mask the original failure, so it is only logged.
func recordFailedRun(led *ledger.Store, kind string, started time.Time, runErr error) {
	outcome := "failed"
	if state := pipeline.FailedState(runErr); state != "" {
		outcome = fmt.Sprintf("failed: %s", state)
	}
	if _, err := led.RecordRun(ledger.Run{
		Kind:       kind,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Outcome:    outcome,
	}); err != nil {
		log.Printf("Warning: failed to record run: %v", err)
	}
}
