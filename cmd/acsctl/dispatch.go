package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"acs/internal/apierr"
	"acs/internal/command"
	"acs/internal/frontend"
)

// submit wraps payload in an Envelope addressed to kind, signs it with the
// CLI's identity when one is configured, and dispatches it through the
// embedded engine's frontend.Gateway exactly as a networked caller would.
// Submitting through the envelope rather than calling handlers.Service
// directly keeps acsctl exercising the same signature-verification and
// error-mapping path a remote submitter goes through, instead of a
// shortcut only the CLI gets.
func submit(ctx context.Context, eng *engine, kind command.Kind, payload any) frontend.Response {
	raw, err := json.Marshal(payload)
	if err != nil {
		return frontend.Response{Success: false, Error: apierr.Map(apierr.New(apierr.KindInvalidArgument, "encode command payload", err))}
	}
	env := frontend.Envelope{
		RequestID:   uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		SubmittedBy: submittedBy(),
		Kind:        kind,
		Payload:     raw,
	}
	if id != nil {
		signed, err := env.Sign(id)
		if err == nil {
			env = signed
		}
	}
	return eng.frontend.Dispatch(ctx, env)
}

// submittedBy is the identity acsctl stamps on every envelope it submits,
// signed or not. Audit records always carry it through SubmittedBy, so an
// operator without a configured signing key still shows up by name instead
// of an empty string.
func submittedBy() string {
	if cfg != nil && cfg.Identity.Name != "" {
		return cfg.Identity.Name
	}
	return "acsctl"
}

// render prints resp.Value through out on success, or returns resp.Error as
// a Go error that main turns into a nonzero exit status.
func render(out *outputWriter, resp frontend.Response) error {
	if !resp.Success {
		if resp.Error != nil {
			return fmt.Errorf("%s: %s", resp.Error.Kind, resp.Error.Message)
		}
		return fmt.Errorf("command failed")
	}
	if resp.Value == nil {
		out.success("done")
		return nil
	}
	return out.write(resp.Value)
}
