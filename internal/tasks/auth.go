package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/simklx/internal/shared"
	"golang.org/x/oauth2"
)

// AuthPrompt is the question asked while the user enters the pairing code.
const AuthPrompt = "Press Enter after entering the code on the verification page"

// Authenticate runs the device-code flow and returns an in-memory access token.
//
// Every failure, including a declined prompt, wraps [shared.ErrAuthFailed].
func (e *SyncEngine) Authenticate(ctx context.Context, progress chan<- ProgressUpdate) (*oauth2.Token, error) {
	if e.history == nil {
		return nil, fmt.Errorf("%w: %w: history service not initialized", shared.ErrAuthFailed, shared.ErrServiceUnavailable)
	}
	if e.confirm == nil {
		return nil, fmt.Errorf("%w: no confirmation callback configured", shared.ErrAuthFailed)
	}

	e.sendProgress(progress, requestPinUpdate())
	code, err := e.history.RequestPin(ctx)
	if err != nil {
		e.logger.Error("pin request failed", "service", e.history.Name(), "error", err)
		return nil, shared.WrapKind(shared.ErrAuthFailed, err)
	}

	e.logger.Debug("pairing code issued", "code", code.UserCode, "url", code.VerificationURL, "expires_in", code.ExpiresIn)
	e.sendProgress(progress, awaitingAuthUpdate(code))
	if e.notify != nil {
		e.notify(code)
	}

	ok, err := e.confirm(ctx, AuthPrompt)
	if err != nil {
		return nil, shared.WrapKind(shared.ErrAuthFailed, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, shared.ErrAuthDeclined)
	}

	token, err := e.history.ResolvePin(ctx, code.UserCode)
	if err != nil {
		e.logger.Error("pin resolution failed", "service", e.history.Name(), "error", err)
		return nil, shared.WrapKind(shared.ErrAuthFailed, err)
	}

	e.logger.Info("authenticated", "service", e.history.Name())
	return token, nil
}
