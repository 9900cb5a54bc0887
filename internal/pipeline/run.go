package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"vaultrag/internal/chroma"
	"vaultrag/internal/chunk"
	"vaultrag/internal/textindex"
	"vaultrag/internal/vault"
)

// Orchestrator runs the pipeline. Each invocation moves through its states
// in order and stops at the first failure; there are no retries at this
// layer.
type Orchestrator struct {
	deps  Deps
	state State
}

// New creates an orchestrator over the given collaborators.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps, state: StateIdle}
}

// State reports where the orchestrator currently is.
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.state = s
	log.Printf("pipeline: %s", s)
}

func (o *Orchestrator) fail(s State, err error) error {
	o.state = StateFailed
	return &StepError{State: s, Err: err}
}

// Run is the full flow: index the vault, then answer the question into sink.
func (o *Orchestrator) Run(ctx context.Context, params Params, sink Sink) (*Result, error) {
	res := &Result{}
	if err := o.runIndexPhase(ctx, params, res); err != nil {
		return nil, err
	}
	if err := o.runAnswerPhase(ctx, params, res, sink); err != nil {
		return nil, err
	}
	o.setState(StateDone)
	res.State = StateDone
	return res, nil
}

// Index runs only the storage half: read, chunk, embed, provision, upsert.
func (o *Orchestrator) Index(ctx context.Context, params Params) (*Result, error) {
	res := &Result{}
	if err := o.runIndexPhase(ctx, params, res); err != nil {
		return nil, err
	}
	o.setState(StateDone)
	res.State = StateDone
	return res, nil
}

// Answer runs only the question half against an already indexed collection.
func (o *Orchestrator) Answer(ctx context.Context, params Params, sink Sink) (*Result, error) {
	if params.CollectionID == "" {
		return nil, o.fail(StateRetrievalEmbedding, fmt.Errorf("no collection id resolved, index the vault first"))
	}
	res := &Result{CollectionID: params.CollectionID}
	if err := o.runAnswerPhase(ctx, params, res, sink); err != nil {
		return nil, err
	}
	o.setState(StateDone)
	res.State = StateDone
	return res, nil
}

func (o *Orchestrator) runIndexPhase(ctx context.Context, params Params, res *Result) error {
	o.setState(StateReadingSources)
	docs, texts, warning, err := o.readSources()
	if err != nil {
		return o.fail(StateReadingSources, err)
	}
	res.Warning = warning

	o.setState(StateChunking)
	chunks, entries, infos, err := cutChunks(docs, texts, params)
	if err != nil {
		return o.fail(StateChunking, err)
	}
	res.Docs = infos
	res.ChunkCount = len(chunks)

	o.setState(StateEmbedding)
	if err := o.embedChunks(ctx, params, chunks); err != nil {
		return o.fail(StateEmbedding, err)
	}

	o.setState(StateProvisioning)
	collectionID, err := o.provision(ctx, params)
	if err != nil {
		return o.fail(StateProvisioning, err)
	}
	res.CollectionID = collectionID

	o.setState(StateUpserting)
	if err := o.deps.Store.Add(ctx, params.Tenant, params.Database, collectionID, chunks); err != nil {
		return o.fail(StateUpserting, err)
	}
	if o.deps.Indexer != nil {
		for i := range chunks {
			if err := o.deps.Indexer.Add(chunks[i].ID, entries[i]); err != nil {
				return o.fail(StateUpserting, fmt.Errorf("keyword index %s: %w", chunks[i].ID, err))
			}
		}
	}
	return nil
}

func (o *Orchestrator) runAnswerPhase(ctx context.Context, params Params, res *Result, sink Sink) error {
	o.setState(StateRetrievalEmbedding)
	queryVec, err := o.deps.Embedder.Embed(ctx, params.EmbedModel, params.Question)
	if err != nil {
		return o.fail(StateRetrievalEmbedding, err)
	}

	o.setState(StateRetrieving)
	contextDocs, err := o.deps.Store.Query(ctx, params.Tenant, params.Database, res.CollectionID, queryVec, params.TopK)
	if err != nil {
		return o.fail(StateRetrieving, err)
	}
	res.Retrieved = contextDocs

	o.setState(StateGenerating)
	prompt := ComposePrompt(params.Instruction, params.Guidance, contextDocs, params.Question)
	stream, err := o.deps.Generator.Generate(ctx, params.GenerateModel, prompt)
	if err != nil {
		return o.fail(StateGenerating, err)
	}
	defer stream.Close()

	for {
		fragment, done, err := stream.Recv()
		if err != nil {
			return o.fail(StateGenerating, err)
		}
		if done {
			return nil
		}
		if err := sink.Append(fragment); err != nil {
			return o.fail(StateGenerating, err)
		}
		res.Fragments++
	}
}

// readSources reads every document the source lists. An unreadable document
// is logged and skipped; the run carries on with the rest.
func (o *Orchestrator) readSources() ([]vault.Document, []string, *ReadWarning, error) {
	docs, err := o.deps.Source.Scan()
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		kept    []vault.Document
		texts   []string
		warning ReadWarning
	)
	for _, doc := range docs {
		text, err := o.deps.Source.Read(doc)
		if err != nil {
			warning.add(doc.Rel, err)
			log.Printf("pipeline: skipping unreadable %s: %v", doc.Rel, err)
			continue
		}
		kept = append(kept, doc)
		texts = append(texts, text)
	}

	if warning.Count == 0 {
		return kept, texts, nil, nil
	}
	return kept, texts, &warning, nil
}

// cutChunks windows every document and assigns ids by ordinal position
// across the whole run: chunk_0, chunk_1 and so on in document order.
func cutChunks(docs []vault.Document, texts []string, params Params) ([]chroma.Chunk, []textindex.Entry, []DocumentInfo, error) {
	var (
		chunks  []chroma.Chunk
		entries []textindex.Entry
		infos   []DocumentInfo
	)
	for i, doc := range docs {
		windows, err := chunk.Split(texts[i], params.ChunkSize, params.ChunkOverlap)
		if err != nil {
			return nil, nil, nil, err
		}

		title := noteTitle(doc.Rel)
		for j, text := range windows {
			chunks = append(chunks, chroma.Chunk{
				ID:   fmt.Sprintf("chunk_%d", len(chunks)),
				Text: text,
			})
			entries = append(entries, textindex.Entry{
				Path:    doc.Rel,
				Title:   title,
				Text:    text,
				Preview: textindex.Preview(text, 160),
				Chunk:   j,
			})
		}
		infos = append(infos, DocumentInfo{Rel: doc.Rel, Size: doc.Size, Mtime: doc.Mtime, Chunks: len(windows)})
	}
	return chunks, entries, infos, nil
}

func noteTitle(rel string) string {
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// embedChunks fills in chunk vectors in place. Parallel workers write to
// disjoint slots, so chunk ids and order are identical to a sequential run.
func (o *Orchestrator) embedChunks(ctx context.Context, params Params, chunks []chroma.Chunk) error {
	workers := params.Workers
	if workers < 1 {
		workers = 1
	}

	if o.deps.Progress != nil {
		o.deps.Progress.Start(len(chunks))
		defer o.deps.Progress.Finish()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range chunks {
		g.Go(func() error {
			vec, err := o.deps.Embedder.Embed(ctx, params.EmbedModel, chunks[i].Text)
			if err != nil {
				return fmt.Errorf("embed %s: %w", chunks[i].ID, err)
			}
			chunks[i].Embedding = vec
			if o.deps.Progress != nil {
				o.deps.Progress.Increment()
			}
			return nil
		})
	}
	return g.Wait()
}

// provision resolves the collection id, creating tenant, database and
// collection as needed. A cached id skips the ensure calls; the state is
// still passed through.
func (o *Orchestrator) provision(ctx context.Context, params Params) (string, error) {
	if params.CollectionID != "" {
		log.Printf("pipeline: reusing collection %s", params.CollectionID)
		return params.CollectionID, nil
	}

	if err := o.deps.Store.EnsureTenant(ctx, params.Tenant); err != nil {
		return "", err
	}
	if err := o.deps.Store.EnsureDatabase(ctx, params.Tenant, params.Database); err != nil {
		return "", err
	}
	return o.deps.Store.EnsureCollection(ctx, params.Tenant, params.Database, params.Collection)
}
