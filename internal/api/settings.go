package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"

	"indicator-dashboard/internal/model"
)

type settingsRequest struct {
	Symbol    string                        `json:"symbol" validate:"required"`
	Timeframe string                        `json:"timeframe" validate:"required"`
	Settings  map[string]map[string]float64 `json:"settings" validate:"required"`
}

type emissionRequest struct {
	Symbol     string   `json:"symbol" validate:"required"`
	Indicators []string `json:"indicators" validate:"dive,required"`
	Timeframes []string `json:"timeframes" validate:"dive,required"`
}

func (h *handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := strings.TrimSpace(q.Get("symbol"))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	tf, ok := model.ParseTimeframe(q.Get("timeframe"))
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown timeframe %q", q.Get("timeframe")))
		return
	}

	st, err := h.Settings.GetIndicatorSettings(r.Context(), symbol, tf)
	if err != nil {
		log.Printf("[api] get settings %s/%s: %v", symbol, tf, err)
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"settings": st,
		"defaults": h.defaults(),
	})
}

// defaults lists every tunable parameter's default value by source.
func (h *handlers) defaults() map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for _, src := range h.Catalog.Sources() {
		params := h.Catalog.Params(src)
		if len(params) == 0 {
			continue
		}
		m := make(map[string]float64, len(params))
		for _, p := range params {
			m[p.Name] = p.Default
		}
		out[src] = m
	}
	return out
}

func (h *handlers) saveSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	tf, ok := model.ParseTimeframe(req.Timeframe)
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown timeframe %q", req.Timeframe))
		return
	}
	settings, err := h.allowListed(req.Settings)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	st := model.IndicatorSettings{
		Symbol:    strings.TrimSpace(req.Symbol),
		Timeframe: tf,
		Settings:  settings,
	}
	if err := h.Settings.SaveIndicatorSettings(r.Context(), st); err != nil {
		log.Printf("[api] save settings %s/%s: %v", st.Symbol, tf, err)
		respondError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "settings": st})
}

// allowListed keeps only catalog parameters and rejects values outside
// their range. Unknown indicator sources are an error; unknown parameters
// of a known source are dropped.
func (h *handlers) allowListed(in map[string]map[string]float64) (map[string]map[string]float64, error) {
	sources := make([]string, 0, len(in))
	for src := range in {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	out := make(map[string]map[string]float64, len(in))
	for _, src := range sources {
		if len(h.Catalog.Params(src)) == 0 {
			return nil, fmt.Errorf("indicator %q has no configurable settings", src)
		}
		names := make([]string, 0, len(in[src]))
		for name := range in[src] {
			names = append(names, name)
		}
		sort.Strings(names)

		kept := make(map[string]float64)
		for _, name := range names {
			p, ok := h.Catalog.Param(src, name)
			if !ok {
				continue
			}
			v := in[src][name]
			if v < p.Min || v > p.Max {
				return nil, fmt.Errorf("%s.%s must be between %g and %g", src, name, p.Min, p.Max)
			}
			kept[name] = v
		}
		if len(kept) > 0 {
			out[src] = kept
		}
	}
	return out, nil
}

func (h *handlers) getEmission(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	st, err := h.Settings.GetEmissionSettings(r.Context(), symbol)
	if errors.Is(err, model.ErrNotFound) {
		// Nothing saved: everything is emitted.
		st = model.EmissionSettings{
			Symbol:     symbol,
			Indicators: h.Catalog.Sources(),
			Timeframes: model.AllTimeframes(),
		}
	} else if err != nil {
		log.Printf("[api] get emission settings %s: %v", symbol, err)
		respondError(w, http.StatusInternalServerError, "failed to load emission settings")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "settings": st})
}

func (h *handlers) saveEmission(w http.ResponseWriter, r *http.Request) {
	var req emissionRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	st := model.EmissionSettings{
		Symbol:     strings.TrimSpace(req.Symbol),
		Indicators: []string{},
		Timeframes: []model.Timeframe{},
	}
	seen := make(map[string]bool)
	for _, name := range req.Indicators {
		if !h.Catalog.HasSource(name) {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown indicator %q", name))
			return
		}
		if !seen[name] {
			seen[name] = true
			st.Indicators = append(st.Indicators, name)
		}
	}
	seenTF := make(map[model.Timeframe]bool)
	for _, raw := range req.Timeframes {
		tf, ok := model.ParseTimeframe(raw)
		if !ok {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown timeframe %q", raw))
			return
		}
		if !seenTF[tf] {
			seenTF[tf] = true
			st.Timeframes = append(st.Timeframes, tf)
		}
	}
	model.SortTimeframes(st.Timeframes)

	if err := h.Settings.SaveEmissionSettings(r.Context(), st); err != nil {
		log.Printf("[api] save emission settings %s: %v", st.Symbol, err)
		respondError(w, http.StatusInternalServerError, "failed to save emission settings")
		return
	}
	if h.Publisher != nil {
		if err := h.Publisher.PublishEmission(r.Context(), st); err != nil {
			log.Printf("[api] publish emission settings %s: %v", st.Symbol, err)
		}
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "settings": st})
}
