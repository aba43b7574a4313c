package frontend

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// SigningIdentity is an Ed25519 keypair used to sign an Envelope. It
// authenticates the caller submitting an envelope, not the SubmittedBy
// identifier the envelope carries — the command handlers trust
// performedBy regardless of whether an envelope is signed at all.
type SigningIdentity struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

// GenerateSigningIdentity creates a fresh Ed25519 keypair.
func GenerateSigningIdentity() (*SigningIdentity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate signing identity: %w", err)
	}
	return &SigningIdentity{PrivateKey: priv, PublicKey: pub}, nil
}

// LoadSigningIdentity reads an OpenSSH-format private key from path.
func LoadSigningIdentity(path string) (*SigningIdentity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing identity: %w", err)
	}
	raw, err := ssh.ParseRawPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse signing identity: %w", err)
	}
	priv, ok := raw.(*ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signing identity at %s is not an Ed25519 key", path)
	}
	return &SigningIdentity{PrivateKey: *priv, PublicKey: (*priv).Public().(ed25519.PublicKey)}, nil
}

// Save writes id's private key to path in OpenSSH PEM format, 0600.
func (id *SigningIdentity) Save(path string) error {
	block, err := ssh.MarshalPrivateKey(id.PrivateKey, "")
	if err != nil {
		return fmt.Errorf("marshal signing identity: %w", err)
	}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0600)
}

// Fingerprint returns the SHA256 fingerprint of id's public key, in the
// same format `ssh-keygen -lf` prints.
func (id *SigningIdentity) Fingerprint() (string, error) {
	pub, err := ssh.NewPublicKey(id.PublicKey)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return ssh.FingerprintSHA256(pub), nil
}

// Sign produces a raw Ed25519 signature over message. It routes through an
// ssh.Signer rather than calling ed25519.Sign directly so key handling
// stays on one code path with LoadSigningIdentity/Save; for an Ed25519
// key, ssh.Signature.Blob is exactly the 64-byte signature ed25519.Verify
// expects, so Gateway.verify never needs to reconstruct an ssh.Signer.
func (id *SigningIdentity) Sign(message []byte) ([]byte, error) {
	signer, err := ssh.NewSignerFromKey(id.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("build signer: %w", err)
	}
	sig, err := signer.Sign(rand.Reader, message)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	return sig.Blob, nil
}

// TrustedKeys resolves a submitter identifier (an Envelope.SubmittedBy
// value) to the Ed25519 public key it is expected to sign with. Callers
// that don't need signature verification pass a nil TrustedKeys to
// Gateway, and every envelope is accepted unsigned.
type TrustedKeys func(submittedBy string) (ed25519.PublicKey, bool)

// verifySignature checks sig against message under pub. It is a thin
// wrapper so callers never need to touch crypto/ed25519 or
// golang.org/x/crypto/ssh directly.
func verifySignature(pub ed25519.PublicKey, message, sig []byte) bool {
	return ed25519.Verify(pub, message, sig)
}
