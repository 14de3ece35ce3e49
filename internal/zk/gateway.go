package zk

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/logging"
)

// Hasher computes the public commitment of a secret.
type Hasher interface {
	Commit(ctx context.Context, secret *big.Int) (string, error)
}

// Verifier checks a proof bundle. It returns ErrProofRejected for a proof
// that does not verify.
type Verifier interface {
	Verify(ctx context.Context, b *Bundle) error
}

// Prover produces a proof of knowledge of secret.
type Prover interface {
	Prove(ctx context.Context, secret *big.Int) (*Bundle, error)
}

type Verdict int

const (
	Accepted Verdict = iota
	Rejected
	VerifierError
	Malformed
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case VerifierError:
		return "verifier_error"
	case Malformed:
		return "malformed"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// Gateway validates proofs structurally, then hands them to the verifier.
// At most maxConcurrent verifications run at once.
type Gateway struct {
	hasher   Hasher
	verifier Verifier
	sem      *semaphore.Weighted
	log      logging.Logger
}

func NewGateway(h Hasher, v Verifier, maxConcurrent int64, log logging.Logger) *Gateway {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Gateway{
		hasher:   h,
		verifier: v,
		sem:      semaphore.NewWeighted(maxConcurrent),
		log:      log.With("module", "zk"),
	}
}

// Verify returns Accepted with a nil error, or a verdict with an error that
// matches ErrMalformedProof, ErrAuthDenied or ErrVerifierUnavailable.
func (g *Gateway) Verify(ctx context.Context, b *Bundle) (Verdict, error) {
	if err := b.Validate(); err != nil {
		return Malformed, err
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return VerifierError, fmt.Errorf("%w: %w", common.ErrVerifierUnavailable, err)
	}
	defer g.sem.Release(1)

	err := g.verifier.Verify(ctx, b)
	switch {
	case err == nil:
		return Accepted, nil
	case errors.Is(err, ErrProofRejected):
		return Rejected, common.ErrAuthDenied
	default:
		g.log.Error(ctx, "proof verification failed", "error", err.Error())
		return VerifierError, fmt.Errorf("%w: %w", common.ErrVerifierUnavailable, err)
	}
}

// Commit validates secret and returns its commitment.
func (g *Gateway) Commit(ctx context.Context, secret *big.Int) (string, error) {
	if err := ValidateSecret(secret); err != nil {
		return "", err
	}
	c, err := g.hasher.Commit(ctx, secret)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return c, nil
}
