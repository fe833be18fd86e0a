package allocation

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tipsettle/internal/domain"
)

type claim struct {
	employeeID uuid.UUID
	weight     decimal.Decimal
}

type share struct {
	employeeID uuid.UUID
	weight     decimal.Decimal
	amount     int64
	fraction   decimal.Decimal // numerator of the discarded fractional part, over the total weight
	bonus      int64           // units received from the remainder policy
}

// split divides total among claims in proportion to weight, flooring every share.
// The remainder is then disposed of according to policy; whatever the policy leaves
// undistributed is returned.
//
// QuoRem keeps the division exact: total*w = W*q + r, so q is the floor for non-negative inputs.
func split(total int64, claims []claim, policy domain.RemainderPolicy) (shares []share, totalWeight decimal.Decimal, remainder int64) {
	totalWeight = decimal.Zero
	for _, cl := range claims {
		totalWeight = totalWeight.Add(cl.weight)
	}
	if totalWeight.IsZero() {
		return nil, totalWeight, total
	}

	pool := decimal.NewFromInt(total)
	shares = make([]share, len(claims))
	var allocated int64
	for i, cl := range claims {
		q, r := pool.Mul(cl.weight).QuoRem(totalWeight, 0)
		shares[i] = share{
			employeeID: cl.employeeID,
			weight:     cl.weight,
			amount:     q.IntPart(),
			fraction:   r,
		}
		allocated += shares[i].amount
	}
	remainder = total - allocated

	if remainder > 0 && len(shares) > 0 {
		switch policy {
		case domain.RemainderFirstRecipient:
			first := 0
			for i := range shares {
				if shares[i].employeeID.String() < shares[first].employeeID.String() {
					first = i
				}
			}
			shares[first].amount += remainder
			shares[first].bonus = remainder
			remainder = 0
		case domain.RemainderLargestFraction:
			order := make([]int, len(shares))
			for i := range order {
				order[i] = i
			}
			sort.SliceStable(order, func(a, b int) bool {
				fa, fb := shares[order[a]].fraction, shares[order[b]].fraction
				if !fa.Equal(fb) {
					return fa.GreaterThan(fb)
				}
				return shares[order[a]].employeeID.String() < shares[order[b]].employeeID.String()
			})
			for k := 0; remainder > 0; k = (k + 1) % len(order) {
				shares[order[k]].amount++
				shares[order[k]].bonus++
				remainder--
			}
		case domain.RemainderUnallocated:
		}
	}
	return shares, totalWeight, remainder
}

// percentOf returns weight/total as a percentage rounded to four places.
func percentOf(weight, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return weight.Mul(hundred).DivRound(total, 4)
}
