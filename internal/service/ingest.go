package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ragsearch/internal/logger"
	"ragsearch/internal/metrics"
	"ragsearch/internal/model"
	"ragsearch/internal/repository"
	"ragsearch/internal/search"
	"ragsearch/internal/storage"
	"ragsearch/internal/tagging"
)

const (
	defaultMaxFileSizeKB   = 102400
	defaultReindexMaxTries = 3
)

// UploadInput is one uploaded file as received from the client.
type UploadInput struct {
	FileName string
	Content  []byte
}

// UploadResult is the committed record and the owner's total after the upload.
// File.RemoteRef stays nil when indexing was deferred; the upload itself
// has still been stored and charged, and Reindex completes it.
type UploadResult struct {
	File    model.FileRecord
	TotalKB float64
}

// ReindexResult summarizes one pass over an owner's pending files.
type ReindexResult struct {
	Pending int `json:"pending"`
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

// FileService covers the file-side use cases exposed over HTTP.
type FileService interface {
	// Upload validates, tags, archives and records the file, then indexes it remotely.
	Upload(ctx context.Context, owner string, in UploadInput) (*UploadResult, error)
	// List returns owner's files in upload order.
	List(ctx context.Context, owner string) ([]model.FileRecord, error)
	// Storage returns owner's storage account.
	Storage(ctx context.Context, owner string) (*model.StorageAccount, error)
	// Reindex retries remote indexing for owner's files that have no remote ref.
	Reindex(ctx context.Context, owner string) (*ReindexResult, error)
}

// IngestDeps wires an IngestService.
type IngestDeps struct {
	Tx        repository.Transactor
	Ledger    *StorageLedger
	Registry  *FileRegistry
	Extractor tagging.Extractor
	Remote    search.Index
	Archive   storage.Archive
	Metrics   *metrics.Metrics
	Log       *logger.Logger

	MaxFileSizeKB   float64
	ReindexMaxTries int
	// NewBackOff builds the retry schedule for Reindex; exponential when nil.
	NewBackOff func() backoff.BackOff
}

// IngestService implements FileService.
type IngestService struct {
	deps IngestDeps
	log  *logger.Logger
}

var _ FileService = (*IngestService)(nil)

func NewIngestService(d IngestDeps) *IngestService {
	if d.MaxFileSizeKB <= 0 {
		d.MaxFileSizeKB = defaultMaxFileSizeKB
	}
	if d.ReindexMaxTries <= 0 {
		d.ReindexMaxTries = defaultReindexMaxTries
	}
	if d.Archive == nil {
		d.Archive = storage.Noop{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.NewBackOff == nil {
		d.NewBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		}
	}
	return &IngestService{deps: d, log: d.Log.With("component", "ingest")}
}

func (s *IngestService) Upload(ctx context.Context, owner string, in UploadInput) (res *UploadResult, err error) {
	ctx, span := tracer.Start(ctx, "IngestService.Upload")
	defer span.End()

	sizeKB := float64(len(in.Content)) / 1024.0
	defer func() {
		s.deps.Metrics.Upload(uploadOutcome(res, err), sizeKB)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if owner == "" {
		return nil, ErrOwnerRequired
	}
	name := strings.TrimSpace(in.FileName)
	ext := path.Ext(name)
	if !strings.EqualFold(ext, ".txt") || len(name) == len(ext) {
		return nil, ErrUnsupportedFileType
	}
	if sizeKB > s.deps.MaxFileSizeKB {
		return nil, &FileTooLargeError{SizeKB: sizeKB, LimitKB: s.deps.MaxFileSizeKB}
	}
	if !utf8.Valid(in.Content) {
		return nil, ErrInvalidEncoding
	}

	content := string(in.Content)
	tags := s.deps.Extractor.Extract(content)
	fileID := uuid.NewString()
	span.SetAttributes(attribute.String("file.id", fileID), attribute.Float64("file.size_kb", sizeKB))

	key := storage.FileKey(owner, fileID)
	if _, err := s.deps.Archive.Put(ctx, key, bytes.NewReader(in.Content), storage.PutObjectOptions{
		Size:        int64(len(in.Content)),
		ContentType: "text/plain; charset=utf-8",
		Metadata:    map[string]string{"original-filename": name},
	}); err != nil {
		return nil, fmt.Errorf("archive content: %w", err)
	}

	var (
		rec *model.FileRecord
		acc *model.StorageAccount
	)
	err = s.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.deps.Ledger.Reserve(ctx, owner, sizeKB)
		if err != nil {
			return err
		}
		r, err := s.deps.Registry.Create(ctx, NewFile{
			ID:          fileID,
			Owner:       owner,
			DisplayName: name,
			ProjectName: strings.TrimSuffix(name, ext),
			SizeKB:      sizeKB,
			Tags:        tags,
			Content:     content,
		})
		if err != nil {
			return err
		}
		rec, acc = r, a
		return nil
	})
	if err != nil {
		// Rollback: the archived copy has no record to belong to.
		if delErr := s.deps.Archive.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			return nil, fmt.Errorf("%w; rollback delete failed: %v", err, delErr)
		}
		return nil, err
	}

	s.log.Info("file_recorded", "owner", owner, "file_id", fileID, "size_kb", sizeKB, "tags", len(tags))

	// From here on the record and its storage charge are committed, so the
	// upload succeeds even when indexing does not. Resubmitting would store
	// and charge the file twice; the record stays pending for Reindex instead.
	res = &UploadResult{File: *rec, TotalKB: acc.TotalKB}
	ref, idxErr := s.index(ctx, rec)
	if idxErr != nil {
		s.log.Warn("file_index_deferred", "owner", owner, "file_id", fileID, "error", idxErr.Error())
		span.SetAttributes(attribute.Bool("file.indexed", false))
		return res, nil
	}
	if attachErr := s.deps.Registry.AttachRemoteRef(context.WithoutCancel(ctx), rec.ID, ref); attachErr != nil {
		s.log.Error("file_remote_ref_orphaned", "owner", owner, "file_id", fileID, "remote_ref", ref, "error", attachErr.Error())
		span.SetAttributes(attribute.Bool("file.indexed", false))
		return res, nil
	}
	res.File.RemoteRef = &ref
	span.SetAttributes(attribute.Bool("file.indexed", true))

	return res, nil
}

func (s *IngestService) index(ctx context.Context, rec *model.FileRecord) (string, error) {
	ref, err := s.deps.Remote.Index(ctx, search.IndexRequest{
		Owner:       rec.Owner,
		FileID:      rec.ID,
		DisplayName: rec.DisplayName,
		Content:     rec.Content,
		Tags:        rec.Tags,
	})
	s.deps.Metrics.RemoteCall("index", err)
	if err != nil {
		return "", &RemoteError{Op: "index", FileID: rec.ID, Retryable: search.IsRetryable(err), Err: err}
	}
	return ref, nil
}

func (s *IngestService) List(ctx context.Context, owner string) ([]model.FileRecord, error) {
	return s.deps.Registry.ListFor(ctx, owner)
}

func (s *IngestService) Storage(ctx context.Context, owner string) (*model.StorageAccount, error) {
	return s.deps.Ledger.Account(ctx, owner)
}

// Reindex walks owner's pending files in upload order. Retryable remote
// failures are retried with backoff; one file failing does not stop the pass.
func (s *IngestService) Reindex(ctx context.Context, owner string) (*ReindexResult, error) {
	ctx, span := tracer.Start(ctx, "IngestService.Reindex")
	defer span.End()

	pending, err := s.deps.Registry.Pending(ctx, owner)
	if err != nil {
		return nil, err
	}

	res := &ReindexResult{Pending: len(pending)}
	for i := range pending {
		rec := &pending[i]
		ref, err := backoff.Retry(ctx, func() (string, error) {
			ref, err := s.index(ctx, rec)
			if err != nil && !search.IsRetryable(err) {
				return "", backoff.Permanent(err)
			}
			return ref, err
		},
			backoff.WithBackOff(s.deps.NewBackOff()),
			backoff.WithMaxTries(uint(s.deps.ReindexMaxTries)),
		)
		if err == nil {
			err = s.deps.Registry.AttachRemoteRef(ctx, rec.ID, ref)
		}
		if err != nil {
			res.Failed++
			s.log.Warn("file_reindex_failed", "owner", owner, "file_id", rec.ID, "error", err.Error())
			if ctxErr := ctx.Err(); ctxErr != nil {
				res.Failed += len(pending) - i - 1
				break
			}
			continue
		}
		res.Indexed++
	}

	span.SetAttributes(
		attribute.Int("reindex.pending", res.Pending),
		attribute.Int("reindex.indexed", res.Indexed),
	)
	s.log.Info("reindex_done", "owner", owner, "pending", res.Pending, "indexed", res.Indexed, "failed", res.Failed)
	return res, nil
}

func uploadOutcome(res *UploadResult, err error) string {
	var (
		qe *QuotaExceededError
		tl *FileTooLargeError
	)
	switch {
	case err == nil && res != nil && !res.File.Indexed():
		return metrics.ResultIndexDeferred
	case err == nil:
		return metrics.ResultOK
	case errors.As(err, &qe):
		return "quota_exceeded"
	case errors.As(err, &tl), errors.Is(err, ErrUnsupportedFileType), errors.Is(err, ErrInvalidEncoding):
		return "rejected"
	default:
		return metrics.ResultError
	}
}
