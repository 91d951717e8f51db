package translate

import (
	"context"
	"fmt"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/lang"
)

// Provider translates text between two content languages.
type Provider interface {
	Translate(ctx context.Context, text string, from, to lang.Language) (string, error)
}

// Unavailable is the provider used when no API key is configured. Every
// call fails with apperr.ErrUpstreamUnavailable.
type Unavailable struct{}

func (Unavailable) Translate(_ context.Context, _ string, _, to lang.Language) (string, error) {
	return "", fmt.Errorf("%w: translation provider not configured (target %s)", apperr.ErrUpstreamUnavailable, to)
}

// Configured reports whether p can actually reach a translation backend.
func Configured(p Provider) bool {
	switch v := p.(type) {
	case nil, Unavailable, *Unavailable:
		return false
	case *Cached:
		return Configured(v.next)
	default:
		return true
	}
}
