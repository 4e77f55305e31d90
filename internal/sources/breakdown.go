package sources

import (
	"sort"

	"github.com/shopspring/decimal"
)

const proportionSigDigits = 4

// Proportion is one entry of a route's source breakdown. Multi-hop entries
// also carry the intermediate token and the per-hop sources.
type Proportion struct {
	Proportion        decimal.Decimal `json:"proportion"`
	IntermediateToken string          `json:"intermediateToken,omitempty"`
	Hops              []Source        `json:"hops,omitempty"`
}

type Breakdown map[Source]Proportion

// LiquiditySource is how a breakdown entry is reported to API users.
type LiquiditySource struct {
	Name              string          `json:"name"`
	Proportion        decimal.Decimal `json:"proportion"`
	IntermediateToken string          `json:"intermediateToken,omitempty"`
	Hops              []string        `json:"hops,omitempty"`
}

// ToList expands the breakdown into the response array. Every enabled
// source is listed, with a zero proportion when the route does not use it.
func (b Breakdown) ToList(enabled []Source) []LiquiditySource {
	seen := make(map[Source]bool, len(enabled)+len(b))
	order := make([]Source, 0, len(enabled)+len(b))
	for _, s := range enabled {
		if !seen[s] {
			seen[s] = true
			order = append(order, s)
		}
	}
	extra := make([]Source, 0, len(b))
	for s := range b {
		if !seen[s] {
			extra = append(extra, s)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	order = append(order, extra...)

	out := make([]LiquiditySource, 0, len(order))
	for _, s := range order {
		p, ok := b[s]
		ls := LiquiditySource{Name: s.DisplayName(), Proportion: decimal.Zero}
		if ok {
			ls.Proportion = toPrecision(p.Proportion, proportionSigDigits)
			if s == MultiHop {
				ls.IntermediateToken = p.IntermediateToken
				for _, h := range p.Hops {
					ls.Hops = append(ls.Hops, h.DisplayName())
				}
			}
		}
		out = append(out, ls)
	}
	return out
}

// Flags fingerprints the sources that carry a non-zero share of the route.
func (b Breakdown) Flags() Flags {
	var f Flags
	for s, p := range b {
		if p.Proportion.IsPositive() {
			f |= s.Flag()
		}
	}
	return f
}

// toPrecision rounds d to the given number of significant digits.
func toPrecision(d decimal.Decimal, digits int32) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	// digits left of the decimal point; negative for leading fractional zeros
	magnitude := int32(len(d.Abs().Coefficient().String())) + d.Exponent()
	return d.Round(digits - magnitude)
}
