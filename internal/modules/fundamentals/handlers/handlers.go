// Package handlers provides HTTP handlers for statement, indicator and
// screener queries.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundamentals/internal/modules/catalog"
	"github.com/aristath/fundamentals/internal/modules/fundamentals"
	"github.com/aristath/fundamentals/internal/modules/statements"
)

const (
	defaultStatementLimit = 500
	maxStatementLimit     = 5000
	defaultCompanyLimit   = 100
	maxCompanyLimit       = 1000
	minSearchLength       = 2
)

// Handler handles fundamentals HTTP requests
type Handler struct {
	service *fundamentals.Service
	log     zerolog.Logger
}

// NewHandler creates a new fundamentals handler
func NewHandler(service *fundamentals.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "fundamentals").Logger(),
	}
}

// HandleStatus handles GET /status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, h.service.Status())
}

// HandleReload handles POST /reload
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if !h.service.ReloadAsync() {
		h.writeData(w, map[string]string{"status": "already_loading", "message": "Reload already in progress"})
		return
	}
	h.writeJSON(w, http.StatusAccepted, envelope(map[string]string{"status": "ok", "message": "Reload started"}))
}

// HandleSearch handles GET /search?q=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(q) < minSearchLength {
		http.Error(w, "q must have at least 2 characters", http.StatusBadRequest)
		return
	}

	results, err := h.service.Search(q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
}

// HandleTicker handles GET /ticker/{ticker}
func (h *Handler) HandleTicker(w http.ResponseWriter, r *http.Request, ticker string) {
	out, err := h.service.CompanyFinancials(fundamentals.Query{Ticker: ticker})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, out)
}

// HandleCompany handles GET /empresa/{cd_cvm}
func (h *Handler) HandleCompany(w http.ResponseWriter, r *http.Request, regulatorCode string) {
	out, err := h.service.CompanyFinancials(fundamentals.Query{RegulatorCode: regulatorCode})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, out)
}

// HandleCompanies handles GET /empresas?search=
func (h *Handler) HandleCompanies(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(w, r, defaultCompanyLimit, maxCompanyLimit)
	if !ok {
		return
	}

	companies, err := h.service.Companies(r.URL.Query().Get("search"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writePage(h, w, companies, limit, offset)
}

// HandleStatement handles GET /dre, /balanco/ativo, /balanco/passivo and /dfc
func (h *Handler) HandleStatement(w http.ResponseWriter, r *http.Request, kind catalog.Kind) {
	q, ok := parseQuery(w, r)
	if !ok {
		return
	}
	limit, offset, ok := pagination(w, r, defaultStatementLimit, maxStatementLimit)
	if !ok {
		return
	}

	raw, _ := strconv.ParseBool(r.URL.Query().Get("raw"))
	if raw {
		rows, err := h.service.RawStatement(kind, q)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writePage(h, w, rows, limit, offset)
		return
	}

	rows, err := h.service.Statement(kind, q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writePage(h, w, rows, limit, offset)
}

// HandleAccounts handles GET /contas/{statement}
func (h *Handler) HandleAccounts(w http.ResponseWriter, r *http.Request, statement string) {
	accounts, err := h.service.Accounts(statement)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, map[string]interface{}{
		"statement":       strings.ToUpper(statement),
		"catalog_version": catalog.Version,
		"accounts":        accounts,
	})
}

// HandleOverview handles GET /overview
func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(w, r)
	if !ok {
		return
	}
	includeMarket := true
	if v := r.URL.Query().Get("include_market"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "include_market must be a boolean", http.StatusBadRequest)
			return
		}
		includeMarket = parsed
	}

	ov, err := h.service.Overview(r.Context(), q, includeMarket)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, ov)
}

// HandleIndicators handles GET /indicadores
func (h *Handler) HandleIndicators(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(w, r)
	if !ok {
		return
	}

	periods, err := h.service.Indicators(q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, map[string]interface{}{
		"periodo":  q.Period,
		"periodos": periods,
		"total":    len(periods),
	})
}

// HandleScreener handles GET /screener
func (h *Handler) HandleScreener(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	res, cached, err := h.service.Screener(r.Context(), refresh)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": res,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"cached":    cached,
		},
	})
}

// parseQuery reads the identity, date and period parameters.
func parseQuery(w http.ResponseWriter, r *http.Request) (fundamentals.Query, bool) {
	params := r.URL.Query()
	period, ok := statements.ParsePeriodClass(params.Get("periodo"))
	if !ok {
		http.Error(w, "periodo must be anual or trimestral", http.StatusBadRequest)
		return fundamentals.Query{}, false
	}

	date := strings.TrimSpace(params.Get("dt_refer"))
	if date != "" {
		if _, err := time.Parse(statements.DateLayout, date); err != nil {
			http.Error(w, "dt_refer must be YYYY-MM-DD", http.StatusBadRequest)
			return fundamentals.Query{}, false
		}
	}

	return fundamentals.Query{
		Ticker:        params.Get("ticker"),
		TaxID:         params.Get("cnpj"),
		RegulatorCode: params.Get("cd_cvm"),
		ReferenceDate: date,
		Period:        period,
	}, true
}

func pagination(w http.ResponseWriter, r *http.Request, defaultLimit, maxLimit int) (limit, offset int, ok bool) {
	limit = defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > maxLimit {
			http.Error(w, "limit must be between 1 and "+strconv.Itoa(maxLimit), http.StatusBadRequest)
			return 0, 0, false
		}
		limit = parsed
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "offset must be a non-negative integer", http.StatusBadRequest)
			return 0, 0, false
		}
		offset = parsed
	}
	return limit, offset, true
}

// writePage writes one page of rows with the total row count.
func writePage[T any](h *Handler, w http.ResponseWriter, rows []T, limit, offset int) {
	total := len(rows)
	if offset >= total {
		rows = []T{}
	} else {
		end := offset + limit
		if end > total {
			end = total
		}
		rows = rows[offset:end]
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": rows,
		"metadata": map[string]interface{}{
			"total":     total,
			"limit":     limit,
			"offset":    offset,
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, envelope(data))
}

// writeError maps service errors to status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, statements.ErrNotLoaded):
		msg := "Statements not loaded"
		status := h.service.Status()
		if status.Loading {
			msg = "Statements are loading, try again in a few minutes"
		} else if status.LoadError != nil {
			msg += ": " + *status.LoadError
		}
		http.Error(w, msg, http.StatusServiceUnavailable)
	case errors.Is(err, fundamentals.ErrUnknownTicker), errors.Is(err, fundamentals.ErrCompanyNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, fundamentals.ErrMissingIdentity), errors.Is(err, fundamentals.ErrUnknownKind):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error().Err(err).Msg("Request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
