package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/user/article-mirror/internal/entity"
)

// fakeFetcher serves asset bytes from a map; unknown URLs fail.
type fakeFetcher struct {
	mu     sync.Mutex
	assets map[string][]byte
	calls  map[string]int
	block  chan struct{}
}

func newFakeFetcher(assets map[string][]byte) *fakeFetcher {
	return &fakeFetcher{assets: assets, calls: make(map[string]int)}
}

func (f *fakeFetcher) GetBytes(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	data, ok := f.assets[url]
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, errors.New("unexpected status code: 404")
	}
	return data, nil
}

func (f *fakeFetcher) GetJSON(context.Context, string, any) error {
	return errors.New("not implemented")
}

func (f *fakeFetcher) PostJSON(context.Context, string, any, any) error {
	return errors.New("not implemented")
}

func (f *fakeFetcher) callsFor(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// memStorage keeps written files in memory.
type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (s *memStorage) Write(_ context.Context, filename string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.files[filename]; exists {
		return "", errors.New("file exists")
	}
	s.files[filename] = data
	return "/tmp/" + filename, nil
}

func (s *memStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// memFailedRepo is an in-memory failed asset ledger.
type memFailedRepo struct {
	mu      sync.Mutex
	records map[string]*entity.FailedAsset
	deleted []string
}

func newMemFailedRepo() *memFailedRepo {
	return &memFailedRepo{records: make(map[string]*entity.FailedAsset)}
}

func (r *memFailedRepo) SaveOrUpdate(_ context.Context, failed *entity.FailedAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[failed.URL]; ok {
		existing.AttemptCount++
		existing.FailureReason = failed.FailureReason
		return nil
	}
	cp := *failed
	cp.AttemptCount = 1
	r.records[failed.URL] = &cp
	return nil
}

func (r *memFailedRepo) ListRecent(_ context.Context, limit int) ([]*entity.FailedAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.FailedAsset, 0, len(r.records))
	for _, rec := range r.records {
		if len(out) == limit {
			break
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *memFailedRepo) Delete(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, url)
	r.deleted = append(r.deleted, url)
	return nil
}
