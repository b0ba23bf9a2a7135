package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/pantrylens/backend/internal/domain"
)

func TestBreaker_CountsOnlyOutages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want gobreaker.State
	}{
		{"product not found", fmt.Errorf("%w: p1", domain.ErrProductNotFound), gobreaker.StateClosed},
		{"caller canceled", context.Canceled, gobreaker.StateClosed},
		{"gate refused before deadline", fmt.Errorf("%w: search: %w", domain.ErrTimeout, context.DeadlineExceeded), gobreaker.StateClosed},
		{"request timeout", fmt.Errorf("%w: search took too long", domain.ErrTimeout), gobreaker.StateOpen},
		{"network failure", fmt.Errorf("%w: connection refused", domain.ErrNetwork), gobreaker.StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := newBreaker(domain.MustSourceID("breakertest"), zap.NewNop())
			for i := 0; i < 12; i++ {
				_, err := cb.Execute(func() ([]byte, error) { return nil, tt.err })
				if errors.Is(err, gobreaker.ErrOpenState) {
					break
				}
			}
			assert.Equal(t, tt.want, cb.State())
		})
	}
}
