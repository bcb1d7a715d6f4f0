package service

import (
	"LinkHub-Backend/internal/domain"
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// DefaultMaxSlugAttempts bounds the suffix search of AllocateSlug.
const DefaultMaxSlugAttempts = 50

const fallbackSlug = "link"

// SlugChecker reports whether a slug is already taken.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// Slugify derives a slug from a title: lowercased, characters outside [a-z0-9 -]
// dropped, runs of spaces and dashes collapsed into one dash, cut to MaxSlugLength.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			dash = true
		}
	}

	slug := trimSlug(b.String(), domain.MaxSlugLength)
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// SlugAllocator finds free slugs.
type SlugAllocator struct {
	checker     SlugChecker
	maxAttempts int
}

// NewSlugAllocator creates an allocator trying at most maxAttempts candidates.
func NewSlugAllocator(checker SlugChecker, maxAttempts int) *SlugAllocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxSlugAttempts
	}
	return &SlugAllocator{checker: checker, maxAttempts: maxAttempts}
}

// MaxAttempts returns the candidate bound.
func (a *SlugAllocator) MaxAttempts() int {
	return a.maxAttempts
}

// AllocateSlug returns the first unused slug among base, base-1, base-2, ...
// Reserved route names are skipped.
// It returns domain.ErrSlugExhausted when every candidate within the bound is taken.
func (a *SlugAllocator) AllocateSlug(ctx context.Context, base string) (string, error) {
	if base == "" {
		base = fallbackSlug
	}
	for i := 0; i < a.maxAttempts; i++ {
		candidate := withSuffix(base, i)
		if domain.IsReservedSlug(candidate) {
			continue
		}
		exists, err := a.checker.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug existence: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: base %q after %d attempts", domain.ErrSlugExhausted, base, a.maxAttempts)
}

// withSuffix appends -n (n > 0) and keeps the result within MaxSlugLength.
func withSuffix(base string, n int) string {
	if n == 0 {
		return trimSlug(base, domain.MaxSlugLength)
	}
	suffix := "-" + strconv.Itoa(n)
	return trimSlug(base, domain.MaxSlugLength-len(suffix)) + suffix
}

func trimSlug(s string, max int) string {
	if len(s) > max {
		s = s[:max]
	}
	return strings.Trim(s, "-")
}
