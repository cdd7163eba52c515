package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// OwnerJoint is the shared-ownership label; it is always a valid owner even
// when a household restricts the member list.
const OwnerJoint = "Joint"

type (
	// SnapshotEntry is one immutable value observation for an asset.
	SnapshotEntry struct {
		Value            float64   `json:"value"`
		ReturnPercentage float64   `json:"returnPercentage"`
		Date             time.Time `json:"date"`
	}

	// Asset is a household holding as recorded within one month record.
	// The canonical current view of an asset is only ever the result of
	// aggregating every month record; no single record is authoritative.
	Asset struct {
		ID               string          `json:"id"`
		Name             string          `json:"name"`
		Owner            string          `json:"owner"`
		AccountDetails   string          `json:"accountDetails"`
		CurrentValue     float64         `json:"currentValue"`
		MonthlySnapshots []SnapshotEntry `json:"monthlySnapshots"`
	}

	// MonthRecord is the stored snapshot of asset data for one period.
	// Its asset list is the subset reported during that month, not
	// necessarily every asset that exists.
	MonthRecord struct {
		PeriodKey   string    `json:"periodKey"`
		Year        int       `json:"year"`
		Month       int       `json:"month"`
		LastUpdated time.Time `json:"lastUpdated"`
		Assets      []Asset   `json:"assets"`
	}
)

var (
	ErrInvalidValue = errors.New("invalid numeric value")
	ErrEmptyName    = errors.New("empty asset name")
	ErrEmptyAssetID = errors.New("empty asset id")
	ErrUnknownOwner = errors.New("unknown owner")
	ErrDuplicateID  = errors.New("duplicate asset id in month record")
	ErrUnknownAsset = errors.New("unknown asset id")
)

// ValidValue reports whether v is a usable numeric value. NaN and the
// infinities must be rejected before anything reaches storage.
func ValidValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s SnapshotEntry) Validate() error {
	if !ValidValue(s.Value) || !ValidValue(s.ReturnPercentage) {
		return ErrInvalidValue
	}
	return nil
}

func (a Asset) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyAssetID
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !ValidValue(a.CurrentValue) {
		return ErrInvalidValue
	}
	for _, s := range a.MonthlySnapshots {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Normalize applies the defined-default policy for optional fields so the
// engine never branches on missing data.
func (a *Asset) Normalize() {
	if strings.TrimSpace(a.Owner) == "" {
		a.Owner = OwnerJoint
	}
	// AccountDetails defaults to the empty string, which the zero value
	// already provides.
	if a.MonthlySnapshots == nil {
		a.MonthlySnapshots = []SnapshotEntry{}
	}
}

// LatestSnapshot returns the newest entry, which by construction carries the
// asset's current value.
func (a Asset) LatestSnapshot() (SnapshotEntry, bool) {
	if len(a.MonthlySnapshots) == 0 {
		return SnapshotEntry{}, false
	}
	return a.MonthlySnapshots[len(a.MonthlySnapshots)-1], true
}

// NewMonthRecord returns an empty record for the period. New records never
// pre-populate assets from history; aggregation handles carry-forward.
func NewMonthRecord(p Period, now time.Time) *MonthRecord {
	return &MonthRecord{
		PeriodKey:   p.Key(),
		Year:        p.Year,
		Month:       p.Month,
		LastUpdated: now,
		Assets:      []Asset{},
	}
}

// Period returns the record's period parsed from its key, falling back to the
// year/month fields for records written before keys were stored.
func (r *MonthRecord) Period() (Period, error) {
	if r.PeriodKey != "" {
		return ParsePeriod(r.PeriodKey)
	}
	p := Period{Year: r.Year, Month: r.Month}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// FindAsset returns the index of the asset with the given id, or -1.
func (r *MonthRecord) FindAsset(id string) int {
	for i := range r.Assets {
		if r.Assets[i].ID == id {
			return i
		}
	}
	return -1
}

// AddAsset appends an asset to the record, enforcing id uniqueness.
func (r *MonthRecord) AddAsset(a Asset) error {
	a.Normalize()
	if err := a.Validate(); err != nil {
		return err
	}
	if r.FindAsset(a.ID) >= 0 {
		return ErrDuplicateID
	}
	r.Assets = append(r.Assets, a)
	return nil
}

func (r *MonthRecord) Validate() error {
	seen := make(map[string]struct{}, len(r.Assets))
	for _, a := range r.Assets {
		if err := a.Validate(); err != nil {
			return err
		}
		if _, dup := seen[a.ID]; dup {
			return ErrDuplicateID
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}
