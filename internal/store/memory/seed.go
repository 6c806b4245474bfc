package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/copperline/storefront/internal/domain"
)

// Seed loads a small demo catalog so the API is browsable out of the box.
// Production deployments use the postgres stores and migrations instead.
func Seed(ctx context.Context, products *ProductStore, reviews *ReviewStore) error {
	now := time.Now().UTC()

	electronics := domain.Category{ID: uuid.New(), Name: "Electronics", Slug: "electronics", Description: "Gadgets and devices"}
	audio := domain.Category{ID: uuid.New(), Name: "Audio", Slug: "audio", ParentID: &electronics.ID}
	wearables := domain.Category{ID: uuid.New(), Name: "Wearables", Slug: "wearables", ParentID: &electronics.ID}
	home := domain.Category{ID: uuid.New(), Name: "Home & Kitchen", Slug: "home-kitchen"}

	for _, c := range []domain.Category{electronics, audio, wearables, home} {
		c := c
		if err := products.PutCategory(ctx, &c); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
	}

	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	catalog := []domain.Product{
		{
			ID: uuid.New(), Name: "Wireless Headphones", Slug: "wireless-headphones",
			Description: "Over-ear noise cancelling headphones with 30 hour battery life.",
			Price:       price("199.99"), Stock: 25, CategoryID: audio.ID,
			Images: []string{"/images/wireless-headphones.jpg"},
			Tags:   []string{"audio", "bluetooth", "noise-cancelling"},
			Featured: true, Trending: true,
		},
		{
			ID: uuid.New(), Name: "Portable Speaker", Slug: "portable-speaker",
			Description: "Waterproof bluetooth speaker with 360-degree sound.",
			Price:       price("79.99"), Stock: 40, CategoryID: audio.ID,
			Images: []string{"/images/portable-speaker.jpg"},
			Tags:   []string{"audio", "bluetooth", "outdoor"},
		},
		{
			ID: uuid.New(), Name: "Smart Watch", Slug: "smart-watch",
			Description: "Fitness tracking, heart rate monitoring and a week of battery.",
			Price:       price("249.99"), Stock: 15, CategoryID: wearables.ID,
			Images: []string{"/images/smart-watch.jpg"},
			Tags:   []string{"fitness", "wearable"},
			Featured: true,
		},
		{
			ID: uuid.New(), Name: "Fitness Band", Slug: "fitness-band",
			Description: "Slim activity tracker with sleep analysis.",
			Price:       price("49.99"), Stock: 60, CategoryID: wearables.ID,
			Images: []string{"/images/fitness-band.jpg"},
			Tags:   []string{"fitness", "wearable"},
			Trending: true,
		},
		{
			ID: uuid.New(), Name: "Espresso Maker", Slug: "espresso-maker",
			Description: "15-bar pump espresso machine with milk frother.",
			Price:       price("129.99"), Stock: 10, CategoryID: home.ID,
			Images: []string{"/images/espresso-maker.jpg"},
			Tags:   []string{"coffee", "kitchen"},
			Featured: true,
		},
		{
			ID: uuid.New(), Name: "Chef Knife Set", Slug: "chef-knife-set",
			Description: "Five piece forged stainless knife set with block.",
			Price:       price("89.99"), Stock: 0, CategoryID: home.ID,
			Images: []string{"/images/chef-knife-set.jpg"},
			Tags:   []string{"kitchen", "cooking"},
		},
	}

	for i := range catalog {
		catalog[i].CreatedAt = now.Add(time.Duration(-i) * time.Hour)
		catalog[i].UpdatedAt = catalog[i].CreatedAt
		if err := products.Put(ctx, &catalog[i]); err != nil {
			return fmt.Errorf("seed product %s: %w", catalog[i].Slug, err)
		}
	}

	seedReviews := []struct {
		product  int
		rating   int
		title    string
		comment  string
		userName string
	}{
		{0, 5, "Fantastic sound", "Noise cancelling works on the train, battery lasts all week.", "Jordan M."},
		{0, 4, "Very comfortable", "A little heavy but great for long sessions.", "Priya S."},
		{2, 5, "Great watch", "Accurate heart rate and the battery claim holds up.", "Alex T."},
		{4, 4, "Solid espresso", "Takes a few tries to dial in but makes a great shot.", "Sam K."},
	}

	for _, sr := range seedReviews {
		review := domain.Review{
			ID:        uuid.New(),
			ProductID: catalog[sr.product].ID,
			UserID:    uuid.New(),
			UserName:  sr.userName,
			Rating:    sr.rating,
			Title:     sr.title,
			Comment:   sr.comment,
			Verified:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := reviews.Create(ctx, &review); err != nil {
			return fmt.Errorf("seed review: %w", err)
		}
	}

	// Fold the seeded reviews into each product's rating aggregate.
	for i := range catalog {
		all, err := reviews.AllByProduct(ctx, catalog[i].ID)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			continue
		}
		sum := 0
		for _, r := range all {
			sum += r.Rating
		}
		catalog[i].Rating = domain.Round2(decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(all)))))
		catalog[i].ReviewCount = len(all)
		if err := products.Update(ctx, &catalog[i]); err != nil {
			return err
		}
	}

	return nil
}
