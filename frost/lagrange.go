package frost

import (
	"fmt"

	"github.com/f3rmion/icefrost/group"
)

// LagrangeCoefficient returns lambda_i = prod_{j in set, j != i} j/(j-i),
// the weight of f(i) when interpolating f(0) from the points in set.
// i must be a member of set.
func LagrangeCoefficient(g group.Group, i ParticipantIndex, set []ParticipantIndex) (group.Scalar, error) {
	if i == 0 {
		return nil, ErrInvalidParticipantIndex
	}
	seen := make(map[ParticipantIndex]struct{}, len(set))
	member := false
	for _, j := range set {
		if j == 0 {
			return nil, ErrInvalidParticipantIndex
		}
		if _, dup := seen[j]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateParticipantIndex, j)
		}
		seen[j] = struct{}{}
		if j == i {
			member = true
		}
	}
	if !member {
		return nil, fmt.Errorf("%w: %d not in signer set", ErrInvalidParticipantIndex, i)
	}

	xi := i.Scalar(g)
	num := g.NewScalar().SetUint64(1)
	den := g.NewScalar().SetUint64(1)
	for _, j := range set {
		if j == i {
			continue
		}
		xj := j.Scalar(g)
		num.Mul(num, xj)
		den.Mul(den, g.NewScalar().Sub(xj, xi))
	}

	denInv, err := g.NewScalar().Invert(den)
	if err != nil {
		return nil, err
	}
	return g.NewScalar().Mul(num, denInv), nil
}

// Evaluation is a polynomial value f(Index).
type Evaluation struct {
	Index ParticipantIndex
	Value group.Scalar
}

// Interpolate reconstructs f(0) from at least threshold evaluations.
func Interpolate(g group.Group, threshold int, evals []Evaluation) (group.Scalar, error) {
	if len(evals) < threshold {
		return nil, fmt.Errorf("%w: have %d evaluations, need %d", ErrThresholdNotMet, len(evals), threshold)
	}
	set := make([]ParticipantIndex, len(evals))
	for k, e := range evals {
		set[k] = e.Index
	}

	secret := g.NewScalar()
	for _, e := range evals {
		lambda, err := LagrangeCoefficient(g, e.Index, set)
		if err != nil {
			return nil, err
		}
		secret.Add(secret, lambda.Mul(lambda, e.Value))
	}
	return secret, nil
}
