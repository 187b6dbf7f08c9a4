package loyalty

// Tier is a discrete loyalty level derived purely from points balance.
type Tier string

const (
	TierSeed      Tier = "seed"
	TierSprout    Tier = "sprout"
	TierBloom     Tier = "bloom"
	TierEvergreen Tier = "evergreen"
)

// tierThresholds is ordered ascending. A balance exactly equal to a
// threshold belongs to the higher tier.
var tierThresholds = []struct {
	Min  int
	Tier Tier
}{
	{0, TierSeed},
	{100, TierSprout},
	{250, TierBloom},
	{500, TierEvergreen},
}

var tierDiscounts = map[Tier]int{
	TierSeed:      0,
	TierSprout:    5,
	TierBloom:     10,
	TierEvergreen: 15,
}

// Ledger is the persisted per-identity points state. Tier and discount are
// never stored; they are recomputed from CurrentBalance at read time so the
// two can never drift apart after a partial failure.
type Ledger struct {
	CurrentBalance int `json:"currentBalance"`
	LifetimePoints int `json:"lifetimePoints"`
}

// Award increments both counters. This subsystem never decrements; the
// balance floor of 0 is implicit.
func (l *Ledger) Award(points int) {
	if points <= 0 {
		return
	}
	l.CurrentBalance += points
	l.LifetimePoints += points
}

// TierFor returns the highest tier whose threshold the balance meets.
func TierFor(balance int) Tier {
	tier := tierThresholds[0].Tier
	for _, t := range tierThresholds {
		if balance >= t.Min {
			tier = t.Tier
		}
	}
	return tier
}

// DiscountFor returns the checkout discount percentage for a tier.
func DiscountFor(tier Tier) int {
	return tierDiscounts[tier]
}

// Snapshot is the read-time view consumed by pricing and by the loyalty
// endpoint.
type Snapshot struct {
	CurrentBalance  int  `json:"currentBalance"`
	LifetimePoints  int  `json:"lifetimePoints"`
	Tier            Tier `json:"tier"`
	DiscountPercent int  `json:"discountPercent"`
}

// SnapshotOf derives the full read-time view from a ledger.
func SnapshotOf(l Ledger) Snapshot {
	tier := TierFor(l.CurrentBalance)
	return Snapshot{
		CurrentBalance:  l.CurrentBalance,
		LifetimePoints:  l.LifetimePoints,
		Tier:            tier,
		DiscountPercent: DiscountFor(tier),
	}
}
