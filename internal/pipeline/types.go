// Package pipeline drives vault documents through chunking, embedding,
// vector storage and question answering as one explicit state machine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vaultrag/internal/chroma"
	"vaultrag/internal/textindex"
	"vaultrag/internal/vault"
)

// State names where in a run the orchestrator currently is.
type State string

const (
	StateIdle               State = "idle"
	StateReadingSources     State = "reading_sources"
	StateChunking           State = "chunking"
	StateEmbedding          State = "embedding"
	StateProvisioning       State = "provisioning"
	StateUpserting          State = "upserting"
	StateRetrievalEmbedding State = "retrieval_embedding"
	StateRetrieving         State = "retrieving"
	StateGenerating         State = "generating"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// StepError records which state a run failed in.
type StepError struct {
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("pipeline failed while %s: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedState returns the state err failed in, or the empty string when err
// did not come out of a pipeline run.
func FailedState(err error) State {
	var step *StepError
	if errors.As(err, &step) {
		return step.State
	}
	return ""
}

// Source lists the documents to process and reads their text.
type Source interface {
	Scan() ([]vault.Document, error)
	Read(doc vault.Document) (string, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, model, input string) ([]float32, error)
}

// VectorStore provisions the collection hierarchy and moves chunks in and
// out of it.
type VectorStore interface {
	EnsureTenant(ctx context.Context, tenant string) error
	EnsureDatabase(ctx context.Context, tenant, database string) error
	EnsureCollection(ctx context.Context, tenant, database, name string) (string, error)
	Add(ctx context.Context, tenant, database, collectionID string, chunks []chroma.Chunk) error
	Query(ctx context.Context, tenant, database, collectionID string, vector []float32, k int) ([]string, error)
}

// FragmentStream delivers generated answer fragments one at a time.
type FragmentStream interface {
	Recv() (fragment string, done bool, err error)
	Close() error
}

// Generator starts a streamed completion.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (FragmentStream, error)
}

// Sink receives answer fragments as they are produced.
type Sink interface {
	Append(fragment string) error
}

// ChunkIndexer mirrors chunks into a keyword index alongside the vector
// upload. Optional.
type ChunkIndexer interface {
	Add(id string, entry textindex.Entry) error
}

// Deps are the collaborators a run needs. Indexer and Progress may be nil;
// everything else is required.
type Deps struct {
	Source    Source
	Embedder  Embedder
	Store     VectorStore
	Generator Generator
	Indexer   ChunkIndexer
	// Progress, when set, is fed one increment per embedded chunk.
	Progress ProgressReporter
}

// Params configure one run. They are read-only to the run itself; the
// resolved collection id comes back in the Result for the caller to persist.
type Params struct {
	EmbedModel    string
	GenerateModel string

	Tenant     string
	Database   string
	Collection string
	// CollectionID, when already known, lets provisioning skip its ensure
	// calls.
	CollectionID string

	ChunkSize    int
	ChunkOverlap int
	TopK         int
	Workers      int

	Question    string
	Instruction string
	Guidance    string
}

// DocumentInfo is the indexed shape of one source document.
type DocumentInfo struct {
	Rel    string
	Size   int64
	Mtime  time.Time
	Chunks int
}

const maxWarningSamples = 5

// ReadWarning sums up documents skipped because they could not be read.
type ReadWarning struct {
	Count   int
	Samples []string
}

func (w *ReadWarning) Error() string {
	return fmt.Sprintf("%d documents skipped as unreadable: %s", w.Count, strings.Join(w.Samples, "; "))
}

func (w *ReadWarning) add(rel string, err error) {
	w.Count++
	if len(w.Samples) < maxWarningSamples {
		w.Samples = append(w.Samples, fmt.Sprintf("%s: %v", rel, err))
	}
}

// Result is what a finished run produced.
type Result struct {
	State        State
	CollectionID string
	Docs         []DocumentInfo
	ChunkCount   int
	Retrieved    []string
	Fragments    int
	Warning      *ReadWarning
}
