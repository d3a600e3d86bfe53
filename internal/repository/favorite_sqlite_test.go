package repository

import (
	"context"
	"testing"

	"colourful-store-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteFavoriteUpsert(t *testing.T) {
	repo := NewSQLiteFavoriteRepository(openTestStore(t))
	ctx := context.Background()

	fav := &model.Favorite{
		Owner:       "alice@example.com",
		ProductType: model.KindPredefined,
		ProductID:   "predefined_1",
		ProductData: []byte(`{"nom":"Chocolat"}`),
	}
	require.NoError(t, repo.Upsert(ctx, fav))
	require.NotZero(t, fav.ID)
	firstID := fav.ID

	// Upserting the same product replaces the snapshot, no second row.
	fav.ProductData = []byte(`{"nom":"Chocolat 70%"}`)
	require.NoError(t, repo.Upsert(ctx, fav))
	assert.Equal(t, firstID, fav.ID)

	favorites, err := repo.ListByOwner(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.JSONEq(t, `{"nom":"Chocolat 70%"}`, string(favorites[0].ProductData))
}

func TestSQLiteFavoriteListNewestFirst(t *testing.T) {
	repo := NewSQLiteFavoriteRepository(openTestStore(t))
	ctx := context.Background()

	for _, id := range []string{"predefined_1", "predefined_2", "predefined_3"} {
		require.NoError(t, repo.Upsert(ctx, &model.Favorite{
			Owner:       "alice@example.com",
			ProductType: model.KindPredefined,
			ProductID:   id,
			ProductData: []byte(`{}`),
		}))
	}

	favorites, err := repo.ListByOwner(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, favorites, 3)
	assert.Equal(t, "predefined_3", favorites[0].ProductID)
	assert.Equal(t, "predefined_1", favorites[2].ProductID)
}

func TestSQLiteFavoriteDeleteByProduct(t *testing.T) {
	repo := NewSQLiteFavoriteRepository(openTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.Favorite{
		Owner: "alice@example.com", ProductType: model.KindPredefined, ProductID: "predefined_1",
	}))

	deleted, err := repo.DeleteByProduct(ctx, "alice@example.com", "predefined_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.DeleteByProduct(ctx, "alice@example.com", "predefined_1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteFavoriteDeleteAll(t *testing.T) {
	repo := NewSQLiteFavoriteRepository(openTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.Favorite{
		Owner: "alice@example.com", ProductType: model.KindPredefined, ProductID: "predefined_1",
	}))
	require.NoError(t, repo.Upsert(ctx, &model.Favorite{
		Owner: "bob@example.com", ProductType: model.KindPredefined, ProductID: "predefined_1",
	}))

	require.NoError(t, repo.DeleteAll(ctx, "alice@example.com"))
	require.NoError(t, repo.DeleteAll(ctx, "alice@example.com"))

	favorites, err := repo.ListByOwner(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, favorites)

	favorites, err = repo.ListByOwner(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Len(t, favorites, 1)
}
