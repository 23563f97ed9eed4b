package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantrychef/pantry"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func seedIngredients() []pantry.Ingredient {
	return []pantry.Ingredient{
		{ID: "1", Name: "Milk", Quantity: 2, Unit: "liters", Category: "Dairy", UserID: "user-1"},
		{ID: "2", Name: "Rice", Quantity: 1, Unit: "kg", Category: "Grains", UserID: "user-1"},
		{ID: "3", Name: "Tofu", Quantity: 1, Unit: "block", Category: "Protein", UserID: "user-2"},
	}
}

func TestDocumentStore_FetchIngredients(t *testing.T) {
	ctx := context.Background()

	t.Run("filters by user", func(t *testing.T) {
		store := NewMemoryStore(seedIngredients()...)
		got, err := store.FetchIngredients(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Milk", got[0].Name)
		assert.Equal(t, "Rice", got[1].Name)
	})

	t.Run("missing document is an empty pantry", func(t *testing.T) {
		store := NewDocumentStore(NewMemoryDocument(nil))
		got, err := store.FetchIngredients(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("load failure", func(t *testing.T) {
		store := NewDocumentStore(NewMemoryDocumentWithError(errors.New("disk gone")))
		_, err := store.FetchIngredients(ctx, "user-1")
		assert.ErrorContains(t, err, "read pantry")
	})

	t.Run("corrupt document", func(t *testing.T) {
		store := NewDocumentStore(NewMemoryDocument([]byte(`{"ingredients":`)))
		_, err := store.FetchIngredients(ctx, "user-1")
		assert.ErrorContains(t, err, "decode pantry")
	})
}

func TestDocumentStore_Mutations(t *testing.T) {
	ctx := context.Background()

	t.Run("add then update", func(t *testing.T) {
		doc := NewMemoryDocument(nil)
		store := NewDocumentStore(doc)

		ing := pantry.Ingredient{ID: "a", Name: "Eggs", Quantity: 6, Unit: "count", UserID: "user-1"}
		require.NoError(t, store.Add(ctx, ing))
		assert.Error(t, store.Add(ctx, ing), "duplicate id")

		ing.Quantity = 4
		require.NoError(t, store.Update(ctx, ing))

		got, err := store.FetchIngredients(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 4.0, got[0].Quantity)
		assert.Contains(t, string(doc.Bytes()), `"ingredients"`)
	})

	t.Run("trash marks the item", func(t *testing.T) {
		store := NewMemoryStore(seedIngredients()...)
		store.now = func() time.Time { return testNow }

		require.NoError(t, store.Trash(ctx, "1"))

		got, err := store.FetchIngredients(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, got[0].IsTrashed)
		require.NotNil(t, got[0].TrashedAt)
		assert.True(t, testNow.Equal(*got[0].TrashedAt))
		assert.False(t, got[1].IsTrashed)
	})

	t.Run("unknown id", func(t *testing.T) {
		store := NewMemoryStore(seedIngredients()...)
		assert.ErrorIs(t, store.Update(ctx, pantry.Ingredient{ID: "nope"}), ErrNotFound)
		assert.ErrorIs(t, store.Trash(ctx, "nope"), ErrNotFound)
		assert.ErrorIs(t, store.Trash(ctx, "nope"), pantry.ErrNotFound)
	})

	t.Run("save failure", func(t *testing.T) {
		doc := NewMemoryDocument([]byte(`{"ingredients":[]}`))
		doc.SetSaveError(errors.New("read-only"))
		store := NewDocumentStore(doc)
		err := store.Add(ctx, pantry.Ingredient{ID: "a", Name: "Eggs"})
		assert.ErrorContains(t, err, "write pantry")
	})
}

func TestDocumentStore_ConcurrentAdds(t *testing.T) {
	store := NewDocumentStore(NewMemoryDocument(nil))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := string(rune('a' + i))
			assert.NoError(t, store.Add(ctx, pantry.Ingredient{ID: id, Name: id, UserID: "user-1"}))
		}()
	}
	wg.Wait()

	got, err := store.FetchIngredients(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

// The executor drives a real store end to end.
func TestDocumentStore_WithExecutor(t *testing.T) {
	store := NewMemoryStore(seedIngredients()...)
	exec := pantry.NewExecutor(store, "user-1")

	action, ok := pantry.ParseAction(`{"action":"update_quantity","name":"milk","quantity":1.5}`)
	require.True(t, ok)

	res, err := exec.Execute(context.Background(), action)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())

	got, err := store.FetchIngredients(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1.5, got[0].Quantity)
}
