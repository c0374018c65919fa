// Package ledger holds the toy balance attacks aim at.
//
// Amount parsing is permissive on purpose: a malformed amount becomes
// Limits.Default instead of failing the request. That mirrors the demo's
// observed behaviour; non-demo code should reject instead.
package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dropDatabas3/websecdemo/internal/session"
)

// Limits bound every transfer amount.
type Limits struct {
	Min     int64
	Max     int64
	Default int64
}

// DefaultLimits returns [1, 1_000_000] with default 1000.
func DefaultLimits() Limits {
	return Limits{Min: 1, Max: 1_000_000, Default: 1000}
}

// normalized repairs inconsistent limits so clamping is always defined.
func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.Min < 1 {
		l.Min = d.Min
	}
	if l.Max < l.Min {
		l.Max = l.Min
	}
	if l.Default < l.Min || l.Default > l.Max {
		l.Default = clamp(d.Default, l.Min, l.Max)
	}
	return l
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseAmount parses a raw query/form value. defaulted reports that raw was
// not an integer and Default was used.
func ParseAmount(raw string, lim Limits) (amount int64, defaulted bool) {
	lim = lim.normalized()
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		n, defaulted = lim.Default, true
	}
	return clamp(n, lim.Min, lim.Max), defaulted
}

// Path names the gate set a transfer went through.
type Path string

const (
	PathVulnerableGET  Path = "vulnerable_get"
	PathVulnerablePOST Path = "vulnerable_post"
	PathProtectedPOST  Path = "protected_post"
)

// Receipt describes one applied transfer.
type Receipt struct {
	Path      Path
	Raw       string
	Amount    int64
	Before    int64
	After     int64
	Defaulted bool
}

// Debited is what actually left the balance (less than Amount when floored).
func (r Receipt) Debited() int64 { return r.Before - r.After }

// Apply debits the state. The balance floors at zero; there is no
// insufficient-funds rejection. The caller must hold the session lock.
func Apply(st *session.State, raw string, lim Limits, path Path) Receipt {
	amount, defaulted := ParseAmount(raw, lim)
	before := st.Balance
	after := before - amount
	if after < 0 {
		after = 0
	}
	st.Balance = after
	st.LastAction = fmt.Sprintf("transfer %d via %s (balance %d → %d)", amount, path, before, after)
	return Receipt{
		Path:      path,
		Raw:       raw,
		Amount:    amount,
		Before:    before,
		After:     after,
		Defaulted: defaulted,
	}
}
