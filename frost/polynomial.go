package frost

import (
	"io"

	"github.com/f3rmion/icefrost/group"
)

// Polynomial is a secret sharing polynomial of degree t-1. Coefficient 0
// is the participant's contribution to the group secret.
type Polynomial struct {
	group        group.Group
	coefficients []group.Scalar
}

// NewPolynomial draws t uniformly random coefficients from r.
func (f *FROST) NewPolynomial(r io.Reader) (*Polynomial, error) {
	p := &Polynomial{
		group:        f.group,
		coefficients: make([]group.Scalar, 0, f.threshold),
	}
	for i := 0; i < f.threshold; i++ {
		c, err := f.group.RandomScalar(r)
		if err != nil {
			p.Zeroize()
			return nil, err
		}
		p.coefficients = append(p.coefficients, c)
	}
	return p, nil
}

// Degree returns t-1.
func (p *Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// Secret returns the constant coefficient a_0.
func (p *Polynomial) Secret() group.Scalar {
	return p.coefficients[0]
}

// Evaluate computes f(x) using Horner's method.
func (p *Polynomial) Evaluate(x group.Scalar) group.Scalar {
	result := p.group.NewScalar().Set(p.coefficients[len(p.coefficients)-1])
	for i := len(p.coefficients) - 2; i >= 0; i-- {
		result.Mul(result, x)
		result.Add(result, p.coefficients[i])
	}
	return result
}

// Commit returns the Feldman commitment {a_k*G} to every coefficient.
func (p *Polynomial) Commit() *Commitment {
	points := make([]group.Point, len(p.coefficients))
	for k, c := range p.coefficients {
		points[k] = p.group.NewPoint().ScalarMult(c, p.group.Generator())
	}
	return &Commitment{Points: points}
}

// Zeroize overwrites every coefficient. The polynomial is unusable
// afterwards.
func (p *Polynomial) Zeroize() {
	for _, c := range p.coefficients {
		c.Zeroize()
	}
	p.coefficients = nil
}
