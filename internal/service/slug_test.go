package service

import (
	"LinkHub-Backend/internal/domain"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type takenSlugs map[string]bool

func (t takenSlugs) SlugExists(_ context.Context, slug string) (bool, error) {
	return t[slug], nil
}

type failingChecker struct{}

func (failingChecker) SlugExists(context.Context, string) (bool, error) {
	return false, errors.New("db down")
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"My Portfolio", "my-portfolio"},
		{"  Hello,   World!  ", "hello-world"},
		{"Promo -- Summer 2026", "promo-summer-2026"},
		{"Café & Bar", "caf-bar"},
		{"!!!", "link"},
		{"", "link"},
		{"under_score", "underscore"},
		{strings.Repeat("ab ", 40), strings.TrimRight(strings.Repeat("ab-", 17), "-")},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := Slugify(tt.title)
			assert.Equal(t, tt.want, got)
			assert.True(t, domain.IsValidSlug(got), "slug %q must be valid", got)
		})
	}
}

func TestAllocateSlug(t *testing.T) {
	ctx := context.Background()

	t.Run("free base", func(t *testing.T) {
		slug, err := NewSlugAllocator(takenSlugs{}, 5).AllocateSlug(ctx, "promo")
		require.NoError(t, err)
		assert.Equal(t, "promo", slug)
	})

	t.Run("first free suffix", func(t *testing.T) {
		taken := takenSlugs{"promo": true, "promo-1": true}
		slug, err := NewSlugAllocator(taken, 5).AllocateSlug(ctx, "promo")
		require.NoError(t, err)
		assert.Equal(t, "promo-2", slug)
	})

	t.Run("reserved base", func(t *testing.T) {
		slug, err := NewSlugAllocator(takenSlugs{}, 5).AllocateSlug(ctx, "health")
		require.NoError(t, err)
		assert.Equal(t, "health-1", slug)
	})

	t.Run("exhausted", func(t *testing.T) {
		taken := takenSlugs{"promo": true, "promo-1": true, "promo-2": true}
		_, err := NewSlugAllocator(taken, 3).AllocateSlug(ctx, "promo")
		assert.ErrorIs(t, err, domain.ErrSlugExhausted)
	})

	t.Run("suffix keeps slug within length", func(t *testing.T) {
		base := strings.Repeat("a", domain.MaxSlugLength)
		slug, err := NewSlugAllocator(takenSlugs{base: true}, 5).AllocateSlug(ctx, base)
		require.NoError(t, err)
		assert.Len(t, slug, domain.MaxSlugLength)
		assert.True(t, strings.HasSuffix(slug, "-1"))
		assert.True(t, domain.IsValidSlug(slug))
	})

	t.Run("storage error", func(t *testing.T) {
		_, err := NewSlugAllocator(failingChecker{}, 5).AllocateSlug(ctx, "promo")
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("default bound", func(t *testing.T) {
		assert.Equal(t, DefaultMaxSlugAttempts, NewSlugAllocator(takenSlugs{}, 0).MaxAttempts())
	})
}
