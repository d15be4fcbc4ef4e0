package memory

import (
	"context"
	"sync"
	"time"

	"ragsearch/internal/model"
	"ragsearch/internal/repository"
)

// Store keeps file records and storage accounts in process memory.
// It implements Transactor, FileRepository and StorageRepository.
//
// A transaction holds the store lock for its whole duration, which serializes
// writers globally; a failed transaction replays its undo journal in reverse.
type Store struct {
	mu       sync.Mutex
	files    []model.FileRecord
	byID     map[string]int
	accounts map[string]model.StorageAccount
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		byID:     make(map[string]int),
		accounts: make(map[string]model.StorageAccount),
	}
}

var (
	_ repository.Transactor        = (*Store)(nil)
	_ repository.FileRepository    = (*Store)(nil)
	_ repository.StorageRepository = (*Store)(nil)
)

type txKey struct{}

type txState struct {
	store *Store
	undo  []func()
}

func (s *Store) tx(ctx context.Context) *txState {
	if st, ok := ctx.Value(txKey{}).(*txState); ok && st.store == s {
		return st
	}
	return nil
}

// WithinTx runs fn under the store lock. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.tx(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := &txState{store: s}
	defer func() {
		if p := recover(); p != nil {
			st.rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		st.rollback()
		return err
	}
	return nil
}

func (st *txState) rollback() {
	for i := len(st.undo) - 1; i >= 0; i-- {
		st.undo[i]()
	}
	st.undo = nil
}

// lock takes the store lock unless ctx already runs inside one of its transactions.
func (s *Store) lock(ctx context.Context) func() {
	if s.tx(ctx) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) journal(ctx context.Context, undo func()) {
	if st := s.tx(ctx); st != nil {
		st.undo = append(st.undo, undo)
	}
}

func (s *Store) Create(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := s.lock(ctx)
	defer unlock()

	stored := cloneFile(*rec)
	stored.RemoteRef = nil
	s.byID[stored.ID] = len(s.files)
	s.files = append(s.files, stored)

	id := stored.ID
	s.journal(ctx, func() {
		delete(s.byID, id)
		s.files = s.files[:len(s.files)-1]
	})

	out := cloneFile(stored)
	return &out, nil
}

func (s *Store) SetRemoteRef(ctx context.Context, id, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	unlock := s.lock(ctx)
	defer unlock()

	i, ok := s.byID[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	if cur := s.files[i].RemoteRef; cur != nil {
		return *cur, nil
	}
	v := ref
	s.files[i].RemoteRef = &v
	s.journal(ctx, func() { s.files[i].RemoteRef = nil })
	return ref, nil
}

func (s *Store) ListByOwner(ctx context.Context, owner string) ([]model.FileRecord, error) {
	return s.filter(ctx, false, func(f *model.FileRecord) bool { return f.Owner == owner })
}

func (s *Store) FindByOwnerAndIDs(ctx context.Context, owner string, ids []string) ([]model.FileRecord, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return s.filter(ctx, false, func(f *model.FileRecord) bool {
		_, ok := want[f.ID]
		return ok && f.Owner == owner
	})
}

func (s *Store) ListPending(ctx context.Context, owner string) ([]model.FileRecord, error) {
	return s.filter(ctx, true, func(f *model.FileRecord) bool {
		return f.Owner == owner && f.RemoteRef == nil
	})
}

func (s *Store) filter(ctx context.Context, withContent bool, keep func(*model.FileRecord) bool) ([]model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := s.lock(ctx)
	defer unlock()

	out := make([]model.FileRecord, 0)
	for i := range s.files {
		if !keep(&s.files[i]) {
			continue
		}
		f := cloneFile(s.files[i])
		if !withContent {
			f.Content = ""
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Store) LockForUpdate(ctx context.Context, owner string, now time.Time) (*model.StorageAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := s.lock(ctx)
	defer unlock()

	a, ok := s.accounts[owner]
	if !ok {
		a = model.StorageAccount{Owner: owner, UpdatedAt: now}
		s.accounts[owner] = a
		s.journal(ctx, func() { delete(s.accounts, owner) })
	}
	return &a, nil
}

func (s *Store) AddKB(ctx context.Context, owner string, delta float64, now time.Time) (*model.StorageAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := s.lock(ctx)
	defer unlock()

	prev, ok := s.accounts[owner]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := prev
	next.TotalKB += delta
	next.UpdatedAt = now
	s.accounts[owner] = next
	s.journal(ctx, func() { s.accounts[owner] = prev })
	return &next, nil
}

func (s *Store) FindByOwner(ctx context.Context, owner string) (*model.StorageAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := s.lock(ctx)
	defer unlock()

	a, ok := s.accounts[owner]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func cloneFile(f model.FileRecord) model.FileRecord {
	if f.Tags != nil {
		f.Tags = append([]string(nil), f.Tags...)
	} else {
		f.Tags = []string{}
	}
	if f.RemoteRef != nil {
		v := *f.RemoteRef
		f.RemoteRef = &v
	}
	return f
}
