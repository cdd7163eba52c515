package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"nestegg/internal/core"
)

// Responses use a {"data": ...} / {"error": ...} envelope.

func writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

// statusForError maps domain validation failures to 422; anything else is an
// internal error whose details stay out of the response body.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidValue),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyAssetID),
		errors.Is(err, core.ErrUnknownOwner),
		errors.Is(err, core.ErrDuplicateID),
		errors.Is(err, core.ErrInvalidPeriod):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

type assetActionRequest struct {
	Action    string `json:"action"`
	PeriodKey string `json:"periodKey"`

	// addSnapshot
	AssetID          string   `json:"assetId"`
	Value            *float64 `json:"value"`
	ReturnPercentage *float64 `json:"returnPercentage"`

	// create
	Name           string   `json:"name"`
	Owner          string   `json:"owner"`
	AccountDetails string   `json:"accountDetails"`
	CurrentValue   *float64 `json:"currentValue"`
}

// initialValue accepts either field name for a creation value.
func (r assetActionRequest) initialValue() *float64 {
	if r.Value != nil {
		return r.Value
	}
	return r.CurrentValue
}

// resolvePeriod defaults to the current month when the request names none.
func (s *Server) resolvePeriod(key string) (core.Period, error) {
	if key == "" {
		return core.PeriodOf(s.now()), nil
	}
	return core.ParsePeriod(key)
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListAssets(w, r)
	case http.MethodPost:
		s.handleAssetAction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	cacheKey := "assets:" + owner

	if assets, found := s.assetsCache.Get(cacheKey); found {
		slog.DebugContext(r.Context(), "Assets cache hit", "owner", owner)
		writeData(w, http.StatusOK, assets)
		return
	}

	assets, err := s.ledger.ListAssets(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "List assets error", "error", err, "owner", owner)
		status, msg := statusForError(err)
		writeError(w, status, msg)
		return
	}

	s.assetsCache.Set(cacheKey, assets)
	writeData(w, http.StatusOK, assets)
}

func (s *Server) handleAssetAction(w http.ResponseWriter, r *http.Request) {
	var req assetActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := s.resolvePeriod(req.PeriodKey)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	switch req.Action {
	case "addSnapshot":
		s.handleAddSnapshot(w, r, p, req)
	case "create":
		s.handleCreateAsset(w, r, p, req)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (s *Server) handleAddSnapshot(w http.ResponseWriter, r *http.Request, p core.Period, req assetActionRequest) {
	if req.Value == nil {
		writeError(w, http.StatusUnprocessableEntity, "value is required")
		return
	}

	applied, err := s.ledger.AddSnapshot(r.Context(), p, req.AssetID, *req.Value, req.ReturnPercentage)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add snapshot error",
			"error", err, "asset_id", req.AssetID, "period", p.Key())
		status, msg := statusForError(err)
		writeError(w, status, msg)
		return
	}

	if applied {
		s.invalidateViews()
	}
	writeData(w, http.StatusOK, map[string]any{
		"applied":   applied,
		"periodKey": p.Key(),
	})
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request, p core.Period, req assetActionRequest) {
	value := req.initialValue()
	if value == nil {
		writeError(w, http.StatusUnprocessableEntity, "value is required")
		return
	}

	asset, err := s.ledger.CreateAsset(r.Context(), p, req.Name, req.Owner, req.AccountDetails, *value)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create asset error",
			"error", err, "name", req.Name, "period", p.Key())
		status, msg := statusForError(err)
		writeError(w, status, msg)
		return
	}

	s.invalidateViews()
	writeData(w, http.StatusCreated, asset)
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	owner := r.URL.Query().Get("owner")
	cacheKey := "networth:" + owner

	if nw, found := s.networthCache.Get(cacheKey); found {
		slog.DebugContext(r.Context(), "Net worth cache hit", "owner", owner)
		writeData(w, http.StatusOK, nw)
		return
	}

	nw, err := s.ledger.NetWorth(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "Net worth error", "error", err, "owner", owner)
		status, msg := statusForError(err)
		writeError(w, status, msg)
		return
	}

	s.networthCache.Set(cacheKey, nw)
	writeData(w, http.StatusOK, nw)
}

type healthScoreRequest struct {
	SavingsRate float64            `json:"savingsRate"`
	Goals       core.GoalsSummary  `json:"goals"`
	Income      float64            `json:"income"`
	Expenses    float64            `json:"expenses"`
	GrowthPct   float64            `json:"growthPct"`
	Breakdown   map[string]float64 `json:"breakdown"`
}

type healthScoreResponse struct {
	Score      int                `json:"score"`
	Components map[string]float64 `json:"components"`
}

// handleHealthScore scores the household's financial health. The asset
// breakdown defaults to the ledger's current aggregated view; callers may
// supply their own to score hypotheticals.
func (s *Server) handleHealthScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req healthScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	breakdown := req.Breakdown
	if breakdown == nil {
		nw, err := s.ledger.NetWorth(r.Context(), "")
		if err != nil {
			slog.ErrorContext(r.Context(), "Net worth for health score failed", "error", err)
			status, msg := statusForError(err)
			writeError(w, status, msg)
			return
		}
		breakdown = nw.Breakdown
	}

	in := core.HealthInputs{
		SavingsRate: req.SavingsRate,
		Goals:       req.Goals,
		Breakdown:   breakdown,
		Income:      req.Income,
		Expenses:    req.Expenses,
		GrowthPct:   req.GrowthPct,
	}

	writeData(w, http.StatusOK, healthScoreResponse{
		Score: core.HealthScore(in),
		Components: map[string]float64{
			"savings":         core.SavingsScore(in.SavingsRate),
			"goals":           core.GoalScore(in.Goals),
			"diversification": core.DiversificationScore(in.Breakdown),
			"expenses":        core.ExpenseScore(in.Income, in.Expenses),
			"growth":          core.GrowthScore(in.GrowthPct),
		},
	})
}
