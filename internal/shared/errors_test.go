package shared

import (
	"errors"
	"testing"
)

func TestWrapKind(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if err := WrapKind(ErrAuthFailed, nil); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("already matching is unchanged", func(t *testing.T) {
		orig := errors.Join(ErrAuthFailed, errors.New("boom"))
		if err := WrapKind(ErrAuthFailed, orig); err != orig {
			t.Errorf("expected original error, got %v", err)
		}
	})

	t.Run("wraps both", func(t *testing.T) {
		err := WrapKind(ErrAuthFailed, ErrServiceUnavailable)
		if !errors.Is(err, ErrAuthFailed) || !errors.Is(err, ErrServiceUnavailable) {
			t.Errorf("expected both kinds, got %v", err)
		}
		if err.Error() != "authentication failed: service unavailable" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}
