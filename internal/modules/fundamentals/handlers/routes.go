package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/fundamentals/internal/modules/catalog"
)

// RegisterRoutes registers all fundamentals routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.HandleStatus)
	r.Post("/reload", h.HandleReload)
	r.Get("/search", h.HandleSearch)
	r.Get("/ticker/{ticker}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleTicker(w, r, chi.URLParam(r, "ticker"))
	})

	r.Get("/empresas", h.HandleCompanies)
	r.Get("/empresa/{cd_cvm}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleCompany(w, r, chi.URLParam(r, "cd_cvm"))
	})

	// Statements
	r.Get("/dre", h.statement(catalog.Income))
	r.Route("/balanco", func(r chi.Router) {
		r.Get("/ativo", h.statement(catalog.Assets))
		r.Get("/passivo", h.statement(catalog.Liabilities))
	})
	r.Get("/dfc", h.statement(catalog.CashFlow))
	r.Get("/contas/{statement}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleAccounts(w, r, chi.URLParam(r, "statement"))
	})

	// Indicators
	r.Get("/overview", h.HandleOverview)
	r.Get("/indicadores", h.HandleIndicators)
	r.Get("/screener", h.HandleScreener)
}

func (h *Handler) statement(kind catalog.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.HandleStatement(w, r, kind)
	}
}
