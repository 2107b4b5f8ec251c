package matcher

import (
	"context"
	"sync"

	"github.com/garry/localify/model"
)

type catalogCall struct {
	Query         string
	FieldFiltered bool
}

// fakeCatalog answers queries from a fixed table and records every call
type fakeCatalog struct {
	mu        sync.Mutex
	responses map[string][]model.Candidate
	errors    map[string]error
	calls     []catalogCall
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		responses: make(map[string][]model.Candidate),
		errors:    make(map[string]error),
	}
}

func (f *fakeCatalog) Query(_ context.Context, query string, fieldFiltered bool) ([]model.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, catalogCall{Query: query, FieldFiltered: fieldFiltered})
	if err, ok := f.errors[query]; ok {
		return nil, err
	}
	return f.responses[query], nil
}

func (f *fakeCatalog) Calls() []catalogCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalogCall(nil), f.calls...)
}

func (f *fakeCatalog) Queries() []string {
	var queries []string
	for _, call := range f.Calls() {
		queries = append(queries, call.Query)
	}
	return queries
}
