package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"ragsearch/internal/logger"
	"ragsearch/internal/metrics"
	"ragsearch/internal/repository/memory"
	"ragsearch/internal/search"
	"ragsearch/internal/tagging"
)

// fakeRemote is an in-process search.Index. Index errors are consumed in order.
type fakeRemote struct {
	mu        sync.Mutex
	indexed   map[string]search.IndexRequest
	indexErrs []error
	indexHook func(req search.IndexRequest)
	queries   [][]string
	queryErr  error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{indexed: map[string]search.IndexRequest{}}
}

func (f *fakeRemote) Index(_ context.Context, req search.IndexRequest) (string, error) {
	f.mu.Lock()
	hook := f.indexHook
	if len(f.indexErrs) > 0 {
		err := f.indexErrs[0]
		f.indexErrs = f.indexErrs[1:]
		if err != nil {
			f.mu.Unlock()
			return "", err
		}
	}
	f.indexed[req.FileID] = req
	f.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	return "ref-" + req.FileID, nil
}

func (f *fakeRemote) Query(_ context.Context, prompt string, refs []string) (search.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, append([]string(nil), refs...))
	if f.queryErr != nil {
		return search.Answer{}, f.queryErr
	}
	sources := make([]search.Source, 0, len(refs))
	for _, r := range refs {
		sources = append(sources, search.Source{FileID: r, Passage: "about " + prompt})
	}
	return search.Answer{Text: fmt.Sprintf("answer from %d files", len(refs)), Sources: sources}, nil
}

func (f *fakeRemote) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeRemote) lastQuery() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return nil
	}
	return f.queries[len(f.queries)-1]
}

type testEnv struct {
	store    *memory.Store
	remote   *fakeRemote
	ledger   *StorageLedger
	registry *FileRegistry
	ingest   *IngestService
	router   *QueryRouter
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T, quotaKB float64) *testEnv {
	t.Helper()
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	store := memory.NewStore()
	remote := newFakeRemote()
	ledger := NewStorageLedger(store, quotaKB)
	registry := NewFileRegistry(store)
	return &testEnv{
		store:    store,
		remote:   remote,
		ledger:   ledger,
		registry: registry,
		metrics:  m,
		ingest: NewIngestService(IngestDeps{
			Tx:         store,
			Ledger:     ledger,
			Registry:   registry,
			Extractor:  tagging.NewFrequencyExtractor(10),
			Remote:     remote,
			Metrics:    m,
			Log:        logger.Nop(),
			NewBackOff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
		}),
		router: NewQueryRouter(registry, remote, m, logger.Nop()),
	}
}

// kbOf returns content of exactly kb kilobytes.
func kbOf(kb int) []byte {
	return bytes.Repeat([]byte("word "), kb*1024/5+1)[:kb*1024]
}

// assertLedgerBalanced checks that owner's total equals the sum of their file sizes.
func assertLedgerBalanced(t *testing.T, e *testEnv, owner string) {
	t.Helper()
	ctx := context.Background()
	files, err := e.registry.ListFor(ctx, owner)
	require.NoError(t, err)
	var sum float64
	for _, f := range files {
		sum += f.SizeKB
	}
	total, err := e.ledger.TotalFor(ctx, owner)
	require.NoError(t, err)
	require.InDelta(t, sum, total, 1e-9, "ledger total must equal sum of file sizes for %s", owner)
}
