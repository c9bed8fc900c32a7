// Package plan defines the pricing tiers and their entitlement quotas.
package plan

// Plan identifies the pricing tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanOptimal Plan = "optimal"
	PlanPremium Plan = "premium"
	PlanPartner Plan = "partner"
)

// Unlimited is the quota sentinel for plans with no active-bot cap.
const Unlimited = 0

// limits is the hardcoded quota catalogue: max concurrently active bots
// per plan. 0 = unlimited.
var limits = map[Plan]int{
	PlanFree:    1,
	PlanOptimal: 5,
	PlanPremium: 20,
	PlanPartner: Unlimited,
}

// LimitFor returns the active-bot quota for a plan. Unknown plans fail
// closed to the free tier: under-provisioning denies a feature, while
// over-provisioning would leak quota.
func LimitFor(p Plan) int {
	limit, ok := limits[p]
	if !ok {
		return limits[PlanFree]
	}
	return limit
}

// IsUnlimited reports whether a limit value means "no cap".
func IsUnlimited(limit int) bool {
	return limit == Unlimited
}

// Valid returns true if the plan name is recognised.
func Valid(p Plan) bool {
	_, ok := limits[p]
	return ok
}
