package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/shared"
	"github.com/desertthunder/simklx/internal/tasks"
)

// ConfirmModel asks a single yes/no question.
//
// Enter and y answer yes; n and esc answer no; q and ctrl+c abort, which counts as no.
type ConfirmModel struct {
	prompt   string
	answered bool
	answer   bool
	aborted  bool
	help     help.Model
	keys     keyMap
}

// NewConfirmModel creates a prompt for the given question.
func NewConfirmModel(prompt string) *ConfirmModel {
	return &ConfirmModel{prompt: prompt, help: help.New(), keys: newKeyMap()}
}

// Answer reports the user's choice. Unanswered and aborted prompts report false.
func (m *ConfirmModel) Answer() bool { return m.answered && m.answer }

// Aborted reports whether the prompt was quit without an answer.
func (m *ConfirmModel) Aborted() bool { return m.aborted }

func (m *ConfirmModel) Init() tea.Cmd { return nil }

// Update handles key presses; any decisive key ends the program.
func (m *ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.quit):
		m.aborted = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.enter), key.Matches(keyMsg, m.keys.yes):
		m.answered, m.answer = true, true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.no):
		m.answered, m.answer = true, false
		return m, tea.Quit
	}
	return m, nil
}

// View renders the question, or the recorded answer once the prompt is done.
func (m *ConfirmModel) View() string {
	switch {
	case m.aborted:
		return styles.Warning(m.prompt+" aborted") + "\n"
	case m.answered && m.answer:
		return fmt.Sprintf("%s %s\n", m.prompt, styles.Success("yes"))
	case m.answered:
		return fmt.Sprintf("%s %s\n", m.prompt, styles.Muted("no"))
	}
	return fmt.Sprintf("%s\n%s\n", styles.Title(m.prompt), m.help.ShortHelpView(m.keys.ShortHelp()))
}

// Confirm runs a [ConfirmModel] until it is answered or ctx is cancelled.
func Confirm(ctx context.Context, prompt string, opts ...tea.ProgramOption) (bool, error) {
	model := NewConfirmModel(prompt)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)

	final, err := tea.NewProgram(model, opts...).Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	if m, ok := final.(*ConfirmModel); ok {
		return m.Answer(), nil
	}
	return model.Answer(), nil
}

// Confirmer adapts [Confirm] to the engine's callback, reading from in and drawing to out.
// Nil streams fall back to the terminal.
func Confirmer(in io.Reader, out io.Writer) tasks.Confirmer {
	var opts []tea.ProgramOption
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return func(ctx context.Context, prompt string) (bool, error) {
		return Confirm(ctx, prompt, opts...)
	}
}

// AutoConfirm answers every prompt with answer.
func AutoConfirm(answer bool) tasks.Confirmer {
	return func(ctx context.Context, prompt string) (bool, error) {
		return answer, ctx.Err()
	}
}

// RenderPairing shows the code to enter and where to enter it.
func RenderPairing(code *models.DeviceCode) string {
	var b strings.Builder
	b.WriteString(styles.Title("Link your Simkl account"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Visit %s and enter:\n", code.VerificationURL)
	b.WriteString(styles.Code(code.UserCode))
	b.WriteString("\n")
	if code.ExpiresIn > 0 {
		b.WriteString(styles.Muted(fmt.Sprintf("The code expires in %d minutes.", max(code.ExpiresIn/60, 1))))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderProgress formats a progress update as one line.
func RenderProgress(update tasks.ProgressUpdate) string {
	label := styles.Muted(fmt.Sprintf("[%s]", update.Phase))
	return fmt.Sprintf("%s %s", label, update.Message)
}

// RenderSummary describes the outcome of each stage of a run.
func RenderSummary(result *tasks.RunResult) string {
	if result == nil {
		return styles.Error("No result available") + "\n"
	}

	var b strings.Builder
	if result.Parsed != nil {
		fmt.Fprintf(&b, "Parsed %d %s and %d %s",
			len(result.Parsed.Movies), shared.Pluralize(len(result.Parsed.Movies), "movie"),
			len(result.Parsed.Shows), shared.Pluralize(len(result.Parsed.Shows), "show"))
		if n := len(result.Parsed.Skipped); n > 0 {
			fmt.Fprintf(&b, " (%s)", styles.Warning(fmt.Sprintf("%d %s skipped", n, shared.Pluralize(n, "row"))))
		}
		b.WriteString("\n")
	}

	if sub := result.Submission; sub != nil {
		b.WriteString(renderSubmission("History", sub))
	}

	switch {
	case result.HistoryErr != nil:
		b.WriteString(styles.Error(fmt.Sprintf("✗ Reconciliation skipped: %v", result.HistoryErr)))
		b.WriteString("\n")
	case result.Reconcile != nil:
		report := result.Reconcile.Report
		if report.Empty() {
			b.WriteString(styles.Success(fmt.Sprintf("✓ All items found among %d remote items", result.Reconcile.RemoteItems)))
		} else {
			b.WriteString(styles.Warning(fmt.Sprintf("! %d movies and %d shows missing", len(report.MissingMovies), len(report.MissingShows))))
		}
		b.WriteString("\n")
		if n := len(result.Reconcile.Skips); n > 0 {
			b.WriteString(styles.Muted(fmt.Sprintf("  %d remote %s without a TMDB id", n, shared.Pluralize(n, "item"))))
			b.WriteString("\n")
		}
	}

	if result.Watchlist != nil {
		b.WriteString(renderSubmission("Watchlist", result.Watchlist))
	}

	return b.String()
}

func renderSubmission(label string, sub *tasks.SubmissionResult) string {
	switch {
	case sub.DryRun:
		return styles.Muted(fmt.Sprintf("%s: dry run, %d movies, %d shows, %d episodes not submitted", label, sub.Movies, sub.Shows, sub.Episodes)) + "\n"
	case !sub.Attempted:
		return styles.Muted(fmt.Sprintf("%s: nothing to submit", label)) + "\n"
	case sub.Succeeded:
		line := styles.Success(fmt.Sprintf("✓ %s submitted: %d movies, %d shows, %d episodes", label, sub.Movies, sub.Shows, sub.Episodes))
		if n := len(sub.ExpansionFailures); n > 0 {
			line += styles.Warning(fmt.Sprintf(" (%d %s without seasons)", n, shared.Pluralize(n, "show")))
		}
		return line + "\n"
	default:
		return styles.Error(fmt.Sprintf("✗ %s submission failed (status %d): %s", label, sub.StatusCode, strings.TrimSpace(sub.Body))) + "\n"
	}
}
