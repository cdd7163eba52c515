package core

// NetWorth is the aggregate position over a set of assets: the total plus a
// per-category breakdown keyed by asset name.
type NetWorth struct {
	TotalNetWorth float64            `json:"totalNetWorth"`
	Breakdown     map[string]float64 `json:"breakdown"`
}

// ComputeNetWorth sums current values and groups them by category name.
// A pure function: zero assets yield a zero total and an empty breakdown.
func ComputeNetWorth(assets []Asset) NetWorth {
	nw := NetWorth{Breakdown: make(map[string]float64, len(assets))}
	for _, a := range assets {
		nw.TotalNetWorth += a.CurrentValue
		nw.Breakdown[a.Name] += a.CurrentValue
	}
	return nw
}

// FilterByOwner returns the assets belonging to owner. An empty owner means
// no filtering.
func FilterByOwner(assets []Asset, owner string) []Asset {
	if owner == "" {
		return assets
	}
	out := make([]Asset, 0, len(assets))
	for _, a := range assets {
		if a.Owner == owner {
			out = append(out, a)
		}
	}
	return out
}
