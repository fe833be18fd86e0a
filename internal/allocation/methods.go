package allocation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tipsettle/internal/domain"
)

func (c *calc) individual() error {
	if len(c.payments) == 0 {
		return domain.ErrNothingToAllocate
	}
	for i := range c.payments {
		p := &c.payments[i]
		e := c.directRecipient(p)
		if e == nil {
			c.unassigned(p, p.TipAmount)
			continue
		}
		c.out = append(c.out, Proposal{
			EmployeeID: e.ID,
			PaymentID:  idPtr(p.ID),
			Amount:     p.TipAmount,
			Method:     domain.MethodIndividual,
			Metadata: map[string]interface{}{
				"method":     string(domain.MethodIndividual),
				"payment_id": p.ID.String(),
				"tip_amount": p.TipAmount,
			},
			Explanation: fmt.Sprintf("Individual: 100%% of the %d tip on payment %s attributed to its server", p.TipAmount, p.ID),
		})
	}
	return nil
}

func (c *calc) pooled() error {
	eligible := c.poolEligible()
	if len(eligible) == 0 {
		return &NoEligibleEmployeesError{Method: domain.MethodPooled, Reason: "no active employees in pool roles at location"}
	}
	if c.summary.TotalTips == 0 {
		return domain.ErrNothingToAllocate
	}
	claims := make([]claim, len(eligible))
	for i, e := range eligible {
		claims[i] = claim{employeeID: e.ID, weight: one}
	}
	c.distribute(c.summary.TotalTips, claims, string(domain.MethodPooled), domain.MethodPooled, func(s share, total decimal.Decimal) Proposal {
		return Proposal{
			PoolSharePercentage: decPtr(percentOf(s.weight, total)),
			Explanation: fmt.Sprintf("Pooled: %d split equally among %d eligible employees = %d%s",
				c.summary.TotalTips, len(claims), s.amount-s.bonus, bonusNote(s)),
		}
	})
	return nil
}

func (c *calc) weighted() error {
	eligible := c.poolEligible()
	if len(eligible) == 0 {
		return &NoEligibleEmployeesError{Method: domain.MethodWeighted, Reason: "no active employees in pool roles at location"}
	}
	if c.summary.TotalTips == 0 {
		return domain.ErrNothingToAllocate
	}
	claims := make([]claim, 0, len(eligible))
	for _, e := range eligible {
		w, err := c.weightOf(e)
		if err != nil {
			return err
		}
		claims = append(claims, claim{employeeID: e.ID, weight: w})
	}
	total := decimal.Zero
	for _, cl := range claims {
		total = total.Add(cl.weight)
	}
	if total.IsZero() {
		return &NoEligibleEmployeesError{Method: domain.MethodWeighted, Reason: "total role weight is zero"}
	}
	c.distribute(c.summary.TotalTips, claims, string(domain.MethodWeighted), domain.MethodWeighted, func(s share, total decimal.Decimal) Proposal {
		return Proposal{
			WeightFactor:        decPtr(s.weight),
			PoolSharePercentage: decPtr(percentOf(s.weight, total)),
			Explanation: fmt.Sprintf("Weighted: %d x weight %s / total weight %s = %d%s",
				c.summary.TotalTips, s.weight.String(), total.String(), s.amount-s.bonus, bonusNote(s)),
		}
	})
	return nil
}

func (c *calc) shiftBased() error {
	eligible := c.poolEligible()
	hours := make(map[uuid.UUID]decimal.Decimal)
	for i := range c.in.Shifts {
		s := &c.in.Shifts[i]
		if s.LocationID != c.in.LocationID || !s.Overlaps(c.in.PeriodStart, c.in.PeriodEnd) {
			continue
		}
		hours[s.EmployeeID] = hours[s.EmployeeID].Add(s.HoursWorked)
	}
	claims := make([]claim, 0, len(eligible))
	for _, e := range eligible {
		if h, ok := hours[e.ID]; ok && h.IsPositive() {
			claims = append(claims, claim{employeeID: e.ID, weight: h})
		}
	}
	if len(claims) == 0 {
		return &NoEligibleEmployeesError{Method: domain.MethodShiftBased, Reason: "no eligible employee worked a shift in the period"}
	}
	if c.summary.TotalTips == 0 {
		return domain.ErrNothingToAllocate
	}
	c.distribute(c.summary.TotalTips, claims, string(domain.MethodShiftBased), domain.MethodShiftBased, func(s share, total decimal.Decimal) Proposal {
		return Proposal{
			HoursWorked:         decPtr(s.weight),
			PoolSharePercentage: decPtr(percentOf(s.weight, total)),
			Explanation: fmt.Sprintf("Shift-based: %d x %s hours / %s total hours = %d%s",
				c.summary.TotalTips, s.weight.String(), total.String(), s.amount-s.bonus, bonusNote(s)),
		}
	})
	return nil
}

func (c *calc) hybrid() error {
	pct, err := c.directPercentage()
	if err != nil {
		return err
	}
	eligible := c.poolEligible()
	if len(eligible) == 0 {
		return &NoEligibleEmployeesError{Method: domain.MethodHybrid, Reason: "no active employees in pool roles at location"}
	}
	if c.summary.TotalTips == 0 {
		return domain.ErrNothingToAllocate
	}

	var direct int64
	for i := range c.payments {
		p := &c.payments[i]
		e := c.directRecipient(p)
		if e == nil {
			continue
		}
		amount := decimal.NewFromInt(p.TipAmount).Mul(pct).Div(hundred).Floor().IntPart()
		if amount <= 0 {
			continue
		}
		direct += amount
		c.out = append(c.out, Proposal{
			EmployeeID: e.ID,
			PaymentID:  idPtr(p.ID),
			Amount:     amount,
			Method:     domain.MethodHybrid,
			Metadata: map[string]interface{}{
				"method":            TagHybridDirect,
				"payment_id":        p.ID.String(),
				"tip_amount":        p.TipAmount,
				"direct_percentage": pct.String(),
			},
			Explanation: fmt.Sprintf("Hybrid direct: %s%% of the %d tip on payment %s = %d",
				pct.String(), p.TipAmount, p.ID, amount),
		})
	}

	pool := c.summary.TotalTips - direct
	if pool == 0 {
		return nil
	}
	claims := make([]claim, len(eligible))
	for i, e := range eligible {
		claims[i] = claim{employeeID: e.ID, weight: one}
	}
	c.distribute(pool, claims, TagHybridPooled, domain.MethodHybrid, func(s share, total decimal.Decimal) Proposal {
		return Proposal{
			PoolSharePercentage: decPtr(percentOf(s.weight, total)),
			Explanation: fmt.Sprintf("Hybrid pooled: remaining pool %d split equally among %d eligible employees = %d%s",
				pool, len(claims), s.amount-s.bonus, bonusNote(s)),
		}
	})
	return nil
}

// distribute splits pool among claims and appends one proposal per non-zero share.
// build supplies the method-specific fields of each proposal.
func (c *calc) distribute(pool int64, claims []claim, tag string, method domain.AllocationMethod, build func(s share, totalWeight decimal.Decimal) Proposal) {
	shares, totalWeight, remainder := split(pool, claims, c.policy)
	c.summary.Remainder += remainder
	for _, s := range shares {
		c.summary.RemainderDistributed += s.bonus
		if s.amount == 0 {
			continue
		}
		p := build(s, totalWeight)
		p.EmployeeID = s.employeeID
		p.Amount = s.amount
		p.Method = method
		p.Metadata = map[string]interface{}{
			"method":          tag,
			"total_pool":      pool,
			"recipient_count": len(claims),
			"weight":          s.weight.String(),
			"total_weight":    totalWeight.String(),
		}
		if s.bonus > 0 {
			p.Metadata["remainder_bonus"] = s.bonus
			p.Metadata["remainder_policy"] = string(c.policy)
		}
		c.out = append(c.out, p)
	}
}

func bonusNote(s share) string {
	if s.bonus == 0 {
		return ""
	}
	return fmt.Sprintf(" plus %d rounding remainder", s.bonus)
}
