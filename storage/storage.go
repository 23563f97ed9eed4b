// Package storage persists pantry ingredients and saved recipes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pantrychef/pantry"
)

var ErrNotFound = errors.New("not found")

// missingIngredient matches both ErrNotFound and pantry.ErrNotFound.
func missingIngredient(id string) error {
	return fmt.Errorf("%w: %s (%w)", pantry.ErrNotFound, id, ErrNotFound)
}

// Document is a single JSON blob the stores read and rewrite whole.
// Load returns ErrNotFound when the document does not exist yet.
type Document interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// MemoryDocument is an in-memory Document for tests and local runs.
type MemoryDocument struct {
	mu      sync.Mutex
	data    []byte
	loadErr error
	saveErr error
}

func NewMemoryDocument(data []byte) *MemoryDocument {
	return &MemoryDocument{data: data}
}

// NewMemoryDocumentWithError returns a document whose every Load and Save
// fails with err.
func NewMemoryDocumentWithError(err error) *MemoryDocument {
	return &MemoryDocument{loadErr: err, saveErr: err}
}

func (m *MemoryDocument) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryDocument) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

// Bytes returns the last saved content.
func (m *MemoryDocument) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// SetSaveError makes subsequent saves fail while loads keep working.
func (m *MemoryDocument) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}
