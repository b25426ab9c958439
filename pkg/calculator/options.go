package calculator

import "fmt"

// BinPolicy decides what the RFM engine does when recency or monetary values are too tied
// to produce four distinct quartile edges.
type BinPolicy int

const (
	// BinStrict reports ErrInsufficientCardinality.
	BinStrict BinPolicy = iota
	// BinRankFallback bins the first-occurrence ranks of the field instead.
	BinRankFallback
)

func (p BinPolicy) String() string {
	switch p {
	case BinRankFallback:
		return "rank"
	default:
		return "strict"
	}
}

// ParseBinPolicy accepts "strict" or "rank".
func ParseBinPolicy(s string) (BinPolicy, error) {
	switch s {
	case "", "strict":
		return BinStrict, nil
	case "rank":
		return BinRankFallback, nil
	}
	return BinStrict, fmt.Errorf("%w: unknown bin policy %q (want strict or rank)", ErrInvalidParameter, s)
}

// Option configures ComputeRFM.
type Option func(*config)

type config struct {
	binPolicy BinPolicy
}

// WithBinPolicy selects the degenerate-distribution policy. The default is BinStrict.
func WithBinPolicy(p BinPolicy) Option {
	return func(c *config) {
		c.binPolicy = p
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{binPolicy: BinStrict}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
