// Package frontend is the out-of-scope proxy boundary (§6): it translates
// a wire Envelope into an internal/command.Command and an
// internal/command.Result back into a wire Response, mapping every error
// through internal/apierr. Nothing in here understands the entity graph,
// the evaluator, or the audit chain directly — it only knows how to route
// a Kind to the right handlers.Service method or command.Buffer.Submit
// call and shuttle bytes across that boundary.
package frontend

import (
	"encoding/json"
	"time"

	"acs/internal/apierr"
	"acs/internal/command"
)

// Envelope is the wire command stream envelope (§6): requestId, timestamp,
// submittedBy, kind, payload, plus an optional signature binding the first
// four fields and the raw payload bytes to a SigningIdentity's public key.
type Envelope struct {
	RequestID   string          `json:"requestId"`
	Timestamp   time.Time       `json:"timestamp"`
	SubmittedBy string          `json:"submittedBy"`
	Kind        command.Kind    `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Signature   []byte          `json:"signature,omitempty"`
}

// signingBytes returns the bytes a SigningIdentity signs, and a verifier
// checks against Signature. It is deterministic for a given Envelope value
// because json.Marshal emits struct fields in declaration order; it is not
// a general-purpose canonicalization and is only meant for a Envelope
// produced and consumed by code in this module.
func (e Envelope) signingBytes() ([]byte, error) {
	unsigned := e
	unsigned.Signature = nil
	return json.Marshal(unsigned)
}

// Sign returns a copy of env with Signature set to id's signature over
// env's other fields. Submitters that don't hold a SigningIdentity can
// leave Signature nil; Gateway only checks it when TrustedKeys is set.
func (e Envelope) Sign(id *SigningIdentity) (Envelope, error) {
	message, err := e.signingBytes()
	if err != nil {
		return Envelope{}, err
	}
	sig, err := id.Sign(message)
	if err != nil {
		return Envelope{}, err
	}
	signed := e
	signed.Signature = sig
	return signed, nil
}

// Response is the wire response (§6): success, an optional value on
// success, and an optional structured error on failure.
type Response struct {
	Success bool          `json:"success"`
	Value   any           `json:"value,omitempty"`
	Error   *apierr.Error `json:"error,omitempty"`
}

func successResponse(value any) Response {
	return Response{Success: true, Value: value}
}

func errorResponse(err error) Response {
	return Response{Success: false, Error: apierr.Map(err)}
}
