package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
)

func seedTestCatalog(t *testing.T) (*ProductStore, domain.Category, domain.Category) {
	t.Helper()
	ctx := context.Background()
	s := NewProductStore()

	parent := domain.Category{ID: uuid.New(), Name: "Electronics", Slug: "electronics"}
	child := domain.Category{ID: uuid.New(), Name: "Audio", Slug: "audio", ParentID: &parent.ID}
	require.NoError(t, s.PutCategory(ctx, &parent))
	require.NoError(t, s.PutCategory(ctx, &child))

	products := []domain.Product{
		{ID: uuid.New(), Name: "Headphones", Slug: "headphones", Description: "over-ear", Price: decimal.RequireFromString("199.99"), Stock: 5, CategoryID: child.ID, Tags: []string{"bluetooth"}, Rating: decimal.RequireFromString("4.5")},
		{ID: uuid.New(), Name: "Speaker", Slug: "speaker", Description: "portable speaker", Price: decimal.RequireFromString("79.99"), Stock: 10, CategoryID: child.ID, Tags: []string{"outdoor"}, Rating: decimal.RequireFromString("3.8")},
		{ID: uuid.New(), Name: "Lamp", Slug: "lamp", Description: "desk lamp", Price: decimal.RequireFromString("25.00"), Stock: 3, CategoryID: parent.ID, Rating: decimal.RequireFromString("4.0")},
	}
	for i := range products {
		products[i].CreatedAt = time.Now().Add(time.Duration(-i) * time.Minute)
		require.NoError(t, s.Put(ctx, &products[i]))
	}
	return s, parent, child
}

func TestProductStore_List_Filters(t *testing.T) {
	s, _, _ := seedTestCatalog(t)
	ctx := context.Background()

	t.Run("child category slug", func(t *testing.T) {
		got, total, err := s.List(ctx, domain.ProductFilter{CategorySlug: "audio"})
		require.NoError(t, err)
		require.Equal(t, 2, total)
		require.Len(t, got, 2)
	})

	t.Run("parent category matches children", func(t *testing.T) {
		_, total, err := s.List(ctx, domain.ProductFilter{CategorySlug: "electronics"})
		require.NoError(t, err)
		require.Equal(t, 3, total)
	})

	t.Run("price range", func(t *testing.T) {
		min := decimal.RequireFromString("50")
		max := decimal.RequireFromString("100")
		got, _, err := s.List(ctx, domain.ProductFilter{MinPrice: &min, MaxPrice: &max})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "speaker", got[0].Slug)
	})

	t.Run("search over name and description", func(t *testing.T) {
		got, _, err := s.List(ctx, domain.ProductFilter{Search: "desk"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "lamp", got[0].Slug)
	})

	t.Run("min rating", func(t *testing.T) {
		min := decimal.RequireFromString("4.0")
		_, total, err := s.List(ctx, domain.ProductFilter{MinRating: &min})
		require.NoError(t, err)
		require.Equal(t, 2, total)
	})

	t.Run("tags", func(t *testing.T) {
		got, _, err := s.List(ctx, domain.ProductFilter{Tags: []string{"BLUETOOTH"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "headphones", got[0].Slug)
	})
}

func TestProductStore_List_SortAndPaginate(t *testing.T) {
	s, _, _ := seedTestCatalog(t)
	ctx := context.Background()

	got, total, err := s.List(ctx, domain.ProductFilter{SortBy: domain.SortByPrice, SortOrder: domain.SortAsc, Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, got, 2)
	require.Equal(t, "lamp", got[0].Slug)
	require.Equal(t, "speaker", got[1].Slug)

	got, _, err = s.List(ctx, domain.ProductFilter{SortBy: domain.SortByPrice, SortOrder: domain.SortAsc, Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "headphones", got[0].Slug)

	got, _, err = s.List(ctx, domain.ProductFilter{Page: 5, Limit: 2})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestProductStore_AdjustStock(t *testing.T) {
	s, _, _ := seedTestCatalog(t)
	ctx := context.Background()

	p, err := s.GetBySlug(ctx, "lamp")
	require.NoError(t, err)

	require.NoError(t, s.AdjustStock(ctx, p.ID, -2))
	p, err = s.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, p.Stock)

	// floors at zero
	require.NoError(t, s.AdjustStock(ctx, p.ID, -5))
	p, err = s.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 0, p.Stock)

	require.ErrorIs(t, s.AdjustStock(ctx, uuid.New(), -1), store.ErrNotFound)
}

func TestProductStore_CopiesOut(t *testing.T) {
	s, _, _ := seedTestCatalog(t)
	ctx := context.Background()

	p, err := s.GetBySlug(ctx, "headphones")
	require.NoError(t, err)
	p.Tags[0] = "mutated"
	p.Stock = 999

	again, err := s.GetBySlug(ctx, "headphones")
	require.NoError(t, err)
	require.Equal(t, "bluetooth", again.Tags[0])
	require.Equal(t, 5, again.Stock)
}

func TestProductStore_Related(t *testing.T) {
	s, _, _ := seedTestCatalog(t)
	ctx := context.Background()

	p, err := s.GetBySlug(ctx, "headphones")
	require.NoError(t, err)

	related, err := s.Related(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, related, 1)
	require.Equal(t, "speaker", related[0].Slug)
}
