package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ragsearch/internal/logger"
	"ragsearch/internal/metrics"
	"ragsearch/internal/model"
	"ragsearch/internal/search"
)

var tracer = otel.Tracer("ragsearch/service")

// PromptResult is the remote answer plus the files that were in scope.
type PromptResult struct {
	Answer  search.Answer
	FileIDs []string
}

// PromptService answers prompts over a user's files.
type PromptService interface {
	Answer(ctx context.Context, owner, prompt string, sel model.Selection) (*PromptResult, error)
}

// QueryRouter resolves a selection to remote refs and issues one scoped query.
type QueryRouter struct {
	registry *FileRegistry
	remote   search.Index
	metrics  *metrics.Metrics
	log      *logger.Logger
}

var _ PromptService = (*QueryRouter)(nil)

func NewQueryRouter(registry *FileRegistry, remote search.Index, m *metrics.Metrics, log *logger.Logger) *QueryRouter {
	return &QueryRouter{registry: registry, remote: remote, metrics: m, log: log.With("component", "query_router")}
}

// Answer resolves sel for owner, keeps the files that already have a remote
// ref, and queries the remote index with exactly those refs. Files still
// pending indexing count for existence checks but are left out of scope.
func (q *QueryRouter) Answer(ctx context.Context, owner, prompt string, sel model.Selection) (res *PromptResult, err error) {
	ctx, span := tracer.Start(ctx, "QueryRouter.Answer")
	defer span.End()
	defer func() {
		q.metrics.Prompt(promptOutcome(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if owner == "" {
		return nil, ErrOwnerRequired
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	// One read: each record comes back either with its ref or without it.
	files, err := q.registry.Resolve(ctx, owner, sel)
	if err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(files))
	fileIDs := make([]string, 0, len(files))
	for _, f := range files {
		if !f.Indexed() {
			continue
		}
		refs = append(refs, *f.RemoteRef)
		fileIDs = append(fileIDs, f.ID)
	}
	span.SetAttributes(
		attribute.Int("files.resolved", len(files)),
		attribute.Int("files.indexed", len(refs)),
	)
	if len(refs) == 0 {
		return nil, ErrNoFilesIndexed
	}

	answer, err := q.remote.Query(ctx, prompt, refs)
	q.metrics.RemoteCall("query", err)
	if err != nil {
		q.log.Warn("prompt_query_failed", "owner", owner, "refs", len(refs), "error", err.Error())
		return nil, &RemoteError{Op: "query", Retryable: search.IsRetryable(err), Err: err}
	}

	q.log.Debug("prompt_answered", "owner", owner, "refs", len(refs), "sources", len(answer.Sources))
	return &PromptResult{Answer: answer, FileIDs: fileIDs}, nil
}

func promptOutcome(err error) string {
	var (
		pnf *PartialNotFoundError
		re  *RemoteError
	)
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrNoFilesIndexed):
		return "no_files_indexed"
	case errors.As(err, &pnf):
		return "files_not_found"
	case errors.As(err, &re):
		return "query_failed"
	default:
		return metrics.ResultError
	}
}
