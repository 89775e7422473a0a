package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/records"
	"github.com/desertthunder/simklx/internal/shared"
	"github.com/desertthunder/simklx/internal/tasks"
)

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		name        string
		msg         tea.KeyMsg
		wantAnswer  bool
		wantAborted bool
	}{
		{name: "enter", msg: tea.KeyMsg{Type: tea.KeyEnter}, wantAnswer: true},
		{name: "y", msg: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, wantAnswer: true},
		{name: "n", msg: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}},
		{name: "esc", msg: tea.KeyMsg{Type: tea.KeyEsc}},
		{name: "q", msg: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, wantAborted: true},
		{name: "ctrl+c", msg: tea.KeyMsg{Type: tea.KeyCtrlC}, wantAborted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConfirmModel("Continue?")
			_, cmd := m.Update(tt.msg)
			if cmd == nil {
				t.Fatal("expected the prompt to quit")
			}
			if m.Answer() != tt.wantAnswer || m.Aborted() != tt.wantAborted {
				t.Errorf("answer=%v aborted=%v, want %v %v", m.Answer(), m.Aborted(), tt.wantAnswer, tt.wantAborted)
			}
		})
	}

	t.Run("other keys are ignored", func(t *testing.T) {
		m := NewConfirmModel("Continue?")
		if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}); cmd != nil {
			t.Error("unexpected command")
		}
		if _, cmd := m.Update(tea.WindowSizeMsg{Width: 80}); cmd != nil {
			t.Error("unexpected command")
		}
		if !strings.Contains(m.View(), "Continue?") {
			t.Errorf("view should show the prompt, got %q", m.View())
		}
	})
}

func TestConfirm(t *testing.T) {
	t.Run("reads answer from input", func(t *testing.T) {
		var out bytes.Buffer
		ok, err := Confirmer(strings.NewReader("y"), &out)(context.Background(), "Import the watchlist too?")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Error("expected yes")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Confirm(ctx, "Continue?", tea.WithInput(strings.NewReader("")), tea.WithOutput(&bytes.Buffer{}))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("auto confirm", func(t *testing.T) {
		ok, err := AutoConfirm(true)(context.Background(), "anything")
		if err != nil || !ok {
			t.Errorf("expected yes, got %v %v", ok, err)
		}
	})
}

func TestRender(t *testing.T) {
	t.Run("pairing", func(t *testing.T) {
		out := RenderPairing(&models.DeviceCode{UserCode: "ABCDE", VerificationURL: "https://simkl.com/pin", ExpiresIn: 900})
		for _, want := range []string{"ABCDE", "https://simkl.com/pin", "15 minutes"} {
			if !strings.Contains(out, want) {
				t.Errorf("pairing output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("progress", func(t *testing.T) {
		out := RenderProgress(tasks.ProgressUpdate{Phase: tasks.Settle, Message: "Waiting 5s"})
		if !strings.Contains(out, "settle") || !strings.Contains(out, "Waiting 5s") {
			t.Errorf("unexpected progress line %q", out)
		}
	})

	t.Run("summary", func(t *testing.T) {
		result := &tasks.RunResult{
			Parsed:     &records.ParseResult{Movies: []models.MediaIntent{models.MovieIntent(100, nil, "")}},
			Submission: &tasks.SubmissionResult{Attempted: true, StatusCode: 400, Body: "bad request"},
			HistoryErr: shared.ErrHistoryFetch,
		}
		out := RenderSummary(result)
		for _, want := range []string{"Parsed 1 movie and 0 shows", "status 400", "bad request", "Reconciliation skipped"} {
			if !strings.Contains(out, want) {
				t.Errorf("summary missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("summary with report", func(t *testing.T) {
		result := &tasks.RunResult{
			Submission: &tasks.SubmissionResult{Attempted: true, Succeeded: true, Movies: 1, Shows: 1, Episodes: 2},
			Reconcile: &tasks.ReconcileResult{
				RemoteItems: 2,
				Report:      &models.DiscrepancyReport{MissingShows: []models.MissingItem{{ID: "200"}}},
			},
		}
		out := RenderSummary(result)
		if !strings.Contains(out, "0 movies and 1 shows missing") || !strings.Contains(out, "1 shows, 2 episodes") {
			t.Errorf("unexpected summary:\n%s", out)
		}
	})
}
