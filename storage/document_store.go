package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"pantrychef/pantry"
)

type pantryDocument struct {
	Ingredients []pantry.Ingredient `json:"ingredients"`
}

// DocumentStore implements pantry.Store over a JSON document holding every
// user's ingredients. Writes are read-modify-write under a mutex.
type DocumentStore struct {
	doc Document
	now func() time.Time
	mu  sync.Mutex
}

func NewDocumentStore(doc Document) *DocumentStore {
	return &DocumentStore{doc: doc, now: time.Now}
}

// NewMemoryStore returns a DocumentStore seeded with ingredients and backed
// by memory.
func NewMemoryStore(ingredients ...pantry.Ingredient) *DocumentStore {
	b, _ := json.Marshal(pantryDocument{Ingredients: ingredients})
	return NewDocumentStore(NewMemoryDocument(b))
}

func (s *DocumentStore) FetchIngredients(ctx context.Context, userID string) ([]pantry.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]pantry.Ingredient, 0, len(all))
	for _, ing := range all {
		if ing.UserID == userID {
			out = append(out, ing)
		}
	}
	return out, nil
}

func (s *DocumentStore) Add(ctx context.Context, ing pantry.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	for _, existing := range all {
		if existing.ID == ing.ID {
			return fmt.Errorf("ingredient %s already exists", ing.ID)
		}
	}
	return s.save(ctx, append(all, ing))
}

func (s *DocumentStore) Update(ctx context.Context, ing pantry.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	i, err := indexOf(all, ing.ID)
	if err != nil {
		return err
	}
	all[i] = ing
	return s.save(ctx, all)
}

func (s *DocumentStore) Trash(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	i, err := indexOf(all, id)
	if err != nil {
		return err
	}
	now := s.now()
	all[i].IsTrashed = true
	all[i].TrashedAt = &now
	all[i].UpdatedAt = now
	return s.save(ctx, all)
}

func (s *DocumentStore) load(ctx context.Context) ([]pantry.Ingredient, error) {
	b, err := s.doc.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pantry: %w", err)
	}
	var d pantryDocument
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode pantry: %w", err)
	}
	return d.Ingredients, nil
}

func (s *DocumentStore) save(ctx context.Context, all []pantry.Ingredient) error {
	b, err := json.MarshalIndent(pantryDocument{Ingredients: all}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pantry: %w", err)
	}
	if err := s.doc.Save(ctx, b); err != nil {
		return fmt.Errorf("write pantry: %w", err)
	}
	return nil
}

func indexOf(all []pantry.Ingredient, id string) (int, error) {
	for i := range all {
		if all[i].ID == id {
			return i, nil
		}
	}
	return -1, missingIngredient(id)
}
