package frost

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrInvalidProofOfKnowledge means a Schnorr proof of knowledge did not
	// verify. The sender is excluded without a complaint.
	ErrInvalidProofOfKnowledge = errors.New("frost: invalid proof of knowledge")
	// ErrShareVerificationFailed means a secret share is inconsistent with
	// the dealer's published commitment.
	ErrShareVerificationFailed = errors.New("frost: share verification failed")
	// ErrComplaintInvalid means a complaint did not hold up, so the accuser
	// is blamed instead of the accused.
	ErrComplaintInvalid = errors.New("frost: complaint invalid")
	// ErrThresholdNotMet means fewer than t participants or shares remain.
	ErrThresholdNotMet = errors.New("frost: threshold not met")
	// ErrDuplicateParticipantIndex means an index appears more than once.
	ErrDuplicateParticipantIndex = errors.New("frost: duplicate participant index")
	// ErrInvalidParticipantIndex means an index is 0 or greater than n.
	ErrInvalidParticipantIndex = errors.New("frost: invalid participant index")
	// ErrInvalidCommitmentLength means a commitment does not carry exactly
	// t coefficients.
	ErrInvalidCommitmentLength = errors.New("frost: invalid commitment length")
	// ErrDecryptionFailed means an encrypted share is malformed.
	ErrDecryptionFailed = errors.New("frost: decryption failed")
	// ErrMissingShare means a dealer's public bundle lacks a share for a
	// qualified receiver.
	ErrMissingShare = errors.New("frost: missing encrypted share")
	// ErrSignatureShareInvalid means a partial signature failed its
	// individual check against the signer's verification share.
	ErrSignatureShareInvalid = errors.New("frost: signature share invalid")
	// ErrAggregateVerificationFailed means the final signature does not
	// verify under the group key.
	ErrAggregateVerificationFailed = errors.New("frost: aggregate signature verification failed")
	// ErrMalformedMessage means a wire message could not be decoded.
	ErrMalformedMessage = errors.New("frost: malformed message")
)

// Accusation is an error naming exactly one participant whose deviation
// is provable from public transcript data.
type Accusation struct {
	Culprit ParticipantIndex
	Reason  error
}

func (a *Accusation) Error() string {
	return fmt.Sprintf("participant %d: %v", a.Culprit, a.Reason)
}

func (a *Accusation) Unwrap() error {
	return a.Reason
}

func accuse(culprit ParticipantIndex, reason error) *Accusation {
	return &Accusation{Culprit: culprit, Reason: reason}
}

// SignatureShareInvalid returns the accusation raised when the partial
// signature of index fails verification.
func SignatureShareInvalid(index ParticipantIndex) error {
	return accuse(index, ErrSignatureShareInvalid)
}

// Culprits returns the culprit of every [Accusation] in err, including
// those collected in a multierror, in the order they appear.
func Culprits(err error) []ParticipantIndex {
	var out []ParticipantIndex
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		var merr *multierror.Error
		if errors.As(err, &merr) {
			for _, e := range merr.WrappedErrors() {
				walk(e)
			}
			return
		}
		var acc *Accusation
		if errors.As(err, &acc) {
			out = append(out, acc.Culprit)
		}
	}
	walk(err)
	return out
}
