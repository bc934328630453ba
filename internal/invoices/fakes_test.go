package invoices

import (
	"context"
	"fmt"
	"io"
	"sync"

	"invoice-api/internal/parser"
	"invoice-api/internal/shared/storage/object"
)

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	putErr    error
	removeErr error
	puts      int
	removes   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	if _, ok := s.objects[key]; ok {
		return fmt.Errorf("%w: %s", object.ErrObjectExists, key)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) PublicURL(key string) string {
	return object.JoinURL("https://files.test/invoices", key)
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type parseCall struct {
	req  parser.ParseRequest
	body []byte
}

type fakeParser struct {
	mu     sync.Mutex
	calls  []parseCall
	result parser.Result
	err    error
}

func (p *fakeParser) Parse(ctx context.Context, req parser.ParseRequest) (parser.Result, error) {
	body, _ := io.ReadAll(req.Body)
	p.mu.Lock()
	p.calls = append(p.calls, parseCall{req: req, body: body})
	p.mu.Unlock()
	return p.result, p.err
}

// failingRepo wraps a Repo and fails chosen operations.
type failingRepo struct {
	Repo
	insertErr error
	updateErr error
}

func (r *failingRepo) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	if r.insertErr != nil {
		return Invoice{}, r.insertErr
	}
	return r.Repo.Insert(ctx, inv)
}

func (r *failingRepo) UpdateByID(ctx context.Context, id string, patch Patch) (Invoice, error) {
	if r.updateErr != nil {
		return Invoice{}, r.updateErr
	}
	return r.Repo.UpdateByID(ctx, id, patch)
}
