// Package allocation computes proposed tip distributions from a rule set and the
// payments, employees and shifts of one period at one location.
//
// Calculate is a pure function: identical inputs always produce identical output,
// nothing is persisted, and every proposed amount carries an explanation. Shares
// are floored to whole minor units; any leftover is reported in the Summary so
// that TotalAllocated + Remainder + UnassignedTips == TotalTips always holds.
package allocation

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tipsettle/internal/domain"
)

// Metadata tags distinguishing the two halves of a hybrid allocation.
const (
	TagHybridDirect = "hybrid_direct"
	TagHybridPooled = "hybrid_pooled"
)

var (
	hundred              = decimal.NewFromInt(100)
	one                  = decimal.NewFromInt(1)
	defaultDirectPercent = decimal.NewFromInt(50)
)

// Input is everything a calculation depends on.
type Input struct {
	RuleSet     *domain.RuleSet
	LocationID  uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	Payments    []domain.Payment
	Employees   []domain.Employee
	Shifts      []domain.Shift

	// DefaultRemainderPolicy applies when the rule definition names none.
	DefaultRemainderPolicy domain.RemainderPolicy
}

// Proposal is one proposed allocation record.
type Proposal struct {
	EmployeeID          uuid.UUID               `json:"employee_id"`
	PaymentID           *uuid.UUID              `json:"payment_id,omitempty"`
	Amount              int64                   `json:"gross_amount"`
	Method              domain.AllocationMethod `json:"allocation_method"`
	PoolSharePercentage *decimal.Decimal        `json:"pool_share_percentage,omitempty"`
	WeightFactor        *decimal.Decimal        `json:"weight_factor,omitempty"`
	HoursWorked         *decimal.Decimal        `json:"hours_worked,omitempty"`
	Metadata            map[string]interface{}  `json:"calculation_metadata"`
	Explanation         string                  `json:"explanation"`
}

// Summary reports the totals of a calculation.
type Summary struct {
	Method               domain.AllocationMethod `json:"allocation_method"`
	RemainderPolicy      domain.RemainderPolicy  `json:"remainder_policy"`
	TotalTips            int64                   `json:"total_tips"`
	TotalAllocated       int64                   `json:"total_allocated"`
	Remainder            int64                   `json:"remainder"`
	RemainderDistributed int64                   `json:"remainder_distributed"`
	UnassignedTips       int64                   `json:"unassigned_tips"`
	UnassignedPaymentIDs []uuid.UUID             `json:"unassigned_payment_ids"`
	PaymentCount         int                     `json:"payment_count"`
	RecipientCount       int                     `json:"recipient_count"`
}

// Result is the output of Calculate.
type Result struct {
	Allocations []Proposal `json:"allocations"`
	Summary     Summary    `json:"summary"`
}

// NoEligibleEmployeesError is returned when a pooled share would be divided among nobody.
type NoEligibleEmployeesError struct {
	Method domain.AllocationMethod
	Reason string
}

func (e *NoEligibleEmployeesError) Error() string {
	return fmt.Sprintf("no eligible employees for %s allocation: %s", e.Method, e.Reason)
}

func (e *NoEligibleEmployeesError) Unwrap() error { return domain.ErrNoEligibleEmployees }

// Calculate proposes an allocation for the input.
func Calculate(in Input) (*Result, error) {
	if in.RuleSet == nil {
		return nil, domain.ErrNoActiveRuleSet
	}
	if in.PeriodEnd.Before(in.PeriodStart) {
		return nil, domain.ErrInvalidPeriod
	}
	def, err := in.RuleSet.Definition()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRuleDefinition, err)
	}
	policy := def.RemainderPolicy
	if policy == "" {
		policy = in.DefaultRemainderPolicy
	}
	if policy == "" {
		policy = domain.RemainderUnallocated
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: unknown remainder policy %q", domain.ErrInvalidRuleDefinition, policy)
	}

	c := &calc{
		in:       in,
		def:      def,
		policy:   policy,
		payments: eligiblePayments(in),
		staff:    indexEmployees(in.Employees),
	}
	c.summary = Summary{
		Method:               in.RuleSet.AllocationMethod,
		RemainderPolicy:      policy,
		UnassignedPaymentIDs: []uuid.UUID{},
		PaymentCount:         len(c.payments),
	}
	for i := range c.payments {
		c.summary.TotalTips += c.payments[i].TipAmount
	}

	switch in.RuleSet.AllocationMethod {
	case domain.MethodIndividual:
		err = c.individual()
	case domain.MethodPooled:
		err = c.pooled()
	case domain.MethodWeighted:
		err = c.weighted()
	case domain.MethodShiftBased:
		err = c.shiftBased()
	case domain.MethodHybrid:
		err = c.hybrid()
	default:
		return nil, fmt.Errorf("%w: unknown allocation method %q", domain.ErrInvalidRuleDefinition, in.RuleSet.AllocationMethod)
	}
	if err != nil {
		return nil, err
	}

	recipients := make(map[uuid.UUID]struct{})
	for i := range c.out {
		c.summary.TotalAllocated += c.out[i].Amount
		recipients[c.out[i].EmployeeID] = struct{}{}
	}
	c.summary.RecipientCount = len(recipients)

	return &Result{Allocations: c.out, Summary: c.summary}, nil
}

type calc struct {
	in       Input
	def      domain.RuleDefinition
	policy   domain.RemainderPolicy
	payments []domain.Payment
	staff    map[uuid.UUID]*domain.Employee
	out      []Proposal
	summary  Summary
}

// eligiblePayments returns completed tip-bearing payments in the window, ordered by date then id.
func eligiblePayments(in Input) []domain.Payment {
	var out []domain.Payment
	for _, p := range in.Payments {
		if p.Status != domain.PaymentStatusCompleted || p.TipAmount <= 0 {
			continue
		}
		if p.LocationID != in.LocationID || p.OrganizationID != in.RuleSet.OrganizationID {
			continue
		}
		if p.PaymentDate.Before(in.PeriodStart) || p.PaymentDate.After(in.PeriodEnd) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.Before(out[j].PaymentDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func indexEmployees(emps []domain.Employee) map[uuid.UUID]*domain.Employee {
	m := make(map[uuid.UUID]*domain.Employee, len(emps))
	for i := range emps {
		m[emps[i].ID] = &emps[i]
	}
	return m
}

// poolEligible returns active employees at the location whose role is in pool_roles, ordered by id.
func (c *calc) poolEligible() []*domain.Employee {
	roles := make(map[string]bool, len(c.def.PoolRoles))
	for _, r := range c.def.PoolRoles {
		roles[r] = true
	}
	var out []*domain.Employee
	for _, e := range c.staff {
		if e.EmploymentStatus != domain.EmploymentActive || !e.WorksAt(c.in.LocationID) {
			continue
		}
		if len(roles) > 0 && !roles[e.Role] {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// directRecipient resolves the employee a payment is attributed to, or nil if unassignable.
func (c *calc) directRecipient(p *domain.Payment) *domain.Employee {
	if p.EmployeeID == nil {
		return nil
	}
	e, ok := c.staff[*p.EmployeeID]
	if !ok || e.EmploymentStatus != domain.EmploymentActive {
		return nil
	}
	return e
}

func (c *calc) unassigned(p *domain.Payment, amount int64) {
	c.summary.UnassignedTips += amount
	c.summary.UnassignedPaymentIDs = append(c.summary.UnassignedPaymentIDs, p.ID)
}

// weightOf returns the rule-level weight for the employee's role, else the employee's own weight, else 1.
func (c *calc) weightOf(e *domain.Employee) (decimal.Decimal, error) {
	w := one
	if rw, ok := c.def.RoleWeights[e.Role]; ok {
		w = rw
	} else if e.RoleWeight != nil {
		w = *e.RoleWeight
	}
	if w.IsNegative() {
		return w, fmt.Errorf("%w: negative weight for role %q", domain.ErrInvalidRuleDefinition, e.Role)
	}
	return w, nil
}

func (c *calc) directPercentage() (decimal.Decimal, error) {
	if c.def.DirectPercentage == nil {
		return defaultDirectPercent, nil
	}
	pct := *c.def.DirectPercentage
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return pct, fmt.Errorf("%w: direct_percentage must be between 0 and 100", domain.ErrInvalidRuleDefinition)
	}
	return pct, nil
}

func idPtr(id uuid.UUID) *uuid.UUID { return &id }

func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

// ValidateDefinition checks a rule set's method and parameters without running a calculation.
func ValidateDefinition(rs *domain.RuleSet) error {
	if !rs.AllocationMethod.Valid() {
		return fmt.Errorf("%w: unknown allocation method %q", domain.ErrInvalidRuleDefinition, rs.AllocationMethod)
	}
	def, err := rs.Definition()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRuleDefinition, err)
	}
	if def.RemainderPolicy != "" && !def.RemainderPolicy.Valid() {
		return fmt.Errorf("%w: unknown remainder policy %q", domain.ErrInvalidRuleDefinition, def.RemainderPolicy)
	}
	for role, w := range def.RoleWeights {
		if w.IsNegative() {
			return fmt.Errorf("%w: negative weight for role %q", domain.ErrInvalidRuleDefinition, role)
		}
	}
	if def.DirectPercentage != nil {
		if def.DirectPercentage.IsNegative() || def.DirectPercentage.GreaterThan(hundred) {
			return fmt.Errorf("%w: direct_percentage must be between 0 and 100", domain.ErrInvalidRuleDefinition)
		}
	}
	return nil
}
