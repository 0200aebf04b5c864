package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

const (
	slugMaxLen      = 160
	slugMaxAttempts = 50
)

type slugExistsFunc func(ctx context.Context, slug, excludeID string) (bool, error)

// generateSlug lower-cases s and collapses every run of non alphanumerics
// into a single dash.
func generateSlug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > slugMaxLen {
		out = strings.Trim(out[:slugMaxLen], "-")
	}
	return out
}

// uniqueSlug returns base, or base-2, base-3 and so on when taken.
func uniqueSlug(ctx context.Context, exists slugExistsFunc, source, fallback, excludeID string) (string, error) {
	base := generateSlug(source)
	if base == "" {
		base = fallback
	}
	candidate := base
	for i := 2; i <= slugMaxAttempts+1; i++ {
		taken, err := exists(ctx, candidate, excludeID)
		if err != nil {
			return "", internalError(err, "failed to check slug")
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", appErrors.Clone(appErrors.ErrDuplicate, "could not generate a unique slug")
}
