// Package metrics reshapes already-aggregated insight samples for display:
// month ranges, dense daily series, categorical grouping, summary cards and
// table sorting.
package metrics

import (
	"fmt"
	"math"
	"strings"
)

type Kind string

const (
	Clicks      Kind = "clicks"
	Impressions Kind = "impressions"
	CPC         Kind = "cpc"
	CTR         Kind = "ctr"
)

// Kinds lists every metric in card order.
var Kinds = []Kind{Clicks, Impressions, CPC, CTR}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case Clicks, Impressions, CPC, CTR:
		return k, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// IsRate reports whether values of this kind are averaged instead of summed.
func (k Kind) IsRate() bool {
	return k == CPC || k == CTR
}

func (k Kind) Label() string {
	switch k {
	case Clicks:
		return "Clicks"
	case Impressions:
		return "Impressions"
	case CPC:
		return "Average CPC"
	case CTR:
		return "CTR"
	}
	return string(k)
}

// Format renders a value the way the stat cards show it.
func (k Kind) Format(v float64) string {
	switch k {
	case CPC:
		return fmt.Sprintf("₹%.2f", v)
	case CTR:
		return fmt.Sprintf("%.1f%%", v)
	}
	return formatThousands(int64(math.Round(v)))
}

func formatThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

// accumulator folds values by sum or arithmetic mean depending on the kind.
type accumulator struct {
	sum   float64
	count int
}

func (a *accumulator) add(v float64) {
	a.sum += v
	a.count++
}

func (a accumulator) value(k Kind) float64 {
	if k.IsRate() {
		if a.count == 0 {
			return 0
		}
		return a.sum / float64(a.count)
	}
	return a.sum
}
