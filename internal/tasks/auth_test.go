package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/shared"
	tu "github.com/desertthunder/simklx/internal/testing"
)

func confirmWith(ok bool, err error, prompts *[]string) Confirmer {
	return func(ctx context.Context, prompt string) (bool, error) {
		if prompts != nil {
			*prompts = append(*prompts, prompt)
		}
		return ok, err
	}
}

func TestAuthenticate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		history := &tu.FakeHistory{}
		var notified *models.DeviceCode
		var prompts []string

		engine := NewSyncEngine(history, nil, EngineOptions{
			Notify:  func(code *models.DeviceCode) { notified = code },
			Confirm: confirmWith(true, nil, &prompts),
		})

		token, err := engine.Authenticate(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token.AccessToken != "fake-token" {
			t.Errorf("unexpected token %q", token.AccessToken)
		}
		if notified == nil || notified.UserCode != "ABCDE" {
			t.Errorf("expected notifier to receive the code, got %+v", notified)
		}
		if len(prompts) != 1 || prompts[0] != AuthPrompt {
			t.Errorf("expected one auth prompt, got %v", prompts)
		}
		if len(history.ResolvedCodes) != 1 || history.ResolvedCodes[0] != "ABCDE" {
			t.Errorf("expected code ABCDE to be resolved, got %v", history.ResolvedCodes)
		}
	})

	t.Run("resolution waits for confirmation", func(t *testing.T) {
		history := &tu.FakeHistory{}
		engine := NewSyncEngine(history, nil, EngineOptions{
			Confirm: func(ctx context.Context, prompt string) (bool, error) {
				if len(history.ResolvedCodes) != 0 {
					t.Error("pin resolved before confirmation")
				}
				return true, nil
			},
		})

		if _, err := engine.Authenticate(context.Background(), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name     string
		history  *tu.FakeHistory
		confirm  Confirmer
		wantKind error
		resolved bool
	}{
		{
			name:     "pin request fails",
			history:  &tu.FakeHistory{PinErr: shared.ErrServiceUnavailable},
			confirm:  confirmWith(true, nil, nil),
			wantKind: shared.ErrServiceUnavailable,
		},
		{
			name:     "user declines",
			history:  &tu.FakeHistory{},
			confirm:  confirmWith(false, nil, nil),
			wantKind: shared.ErrAuthDeclined,
		},
		{
			name:     "prompt errors",
			history:  &tu.FakeHistory{},
			confirm:  confirmWith(false, context.Canceled, nil),
			wantKind: context.Canceled,
		},
		{
			name:     "resolution fails",
			history:  &tu.FakeHistory{ResolveErr: errors.New("no access token")},
			confirm:  confirmWith(true, nil, nil),
			wantKind: shared.ErrAuthFailed,
			resolved: true,
		},
		{
			name:     "no confirmer",
			history:  &tu.FakeHistory{},
			wantKind: shared.ErrAuthFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewSyncEngine(tt.history, nil, EngineOptions{Confirm: tt.confirm})

			token, err := engine.Authenticate(context.Background(), nil)
			if token != nil {
				t.Error("expected no token")
			}
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("expected %v, got %v", tt.wantKind, err)
			}
			if got := len(tt.history.ResolvedCodes) > 0; got != tt.resolved {
				t.Errorf("resolved = %v, want %v", got, tt.resolved)
			}
		})
	}

	t.Run("progress is reported", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 10)
		engine := NewSyncEngine(&tu.FakeHistory{}, nil, EngineOptions{Confirm: confirmWith(true, nil, nil)})

		if _, err := engine.Authenticate(context.Background(), progress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		if len(phases) != 2 || phases[0] != Authenticate {
			t.Errorf("expected two authenticate updates, got %v", phases)
		}
	})
}
