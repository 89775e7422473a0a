package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"
)

// Auth runs the device-code login and reports the token without storing it.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	history, err := r.historyService()
	if err != nil {
		return err
	}

	engine := r.newEngine(history, nil, engineOpts{openBrowser: cmd.Bool("open")})
	token, err := engine.Authenticate(ctx, nil)
	if err != nil {
		return err
	}

	r.logger.Info("simkl login confirmed")
	r.writePlain("✓ Authenticated with %s\n", history.Name())
	r.writePlain("Token type: %s\n", token.Type())
	if !token.Expiry.IsZero() {
		r.writePlain("Expires: %s\n", token.Expiry.Format(time.RFC3339))
	}
	return r.writePlain("The token is kept in memory only; import and reconcile will ask again.\n")
}
