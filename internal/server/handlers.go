package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// routeReports dispatches /api/v1/reports/{ticker}.
func (s *Server) routeReports(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(PathParam(r, "/api/v1/reports/", ""))
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleReportGet(w, r, ticker)
	case http.MethodPost:
		s.handleReportCreate(w, r, ticker)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleReportGet returns today's cached report, or the full history
// with ?history=true. It never triggers generation.
func (s *Server) handleReportGet(w http.ResponseWriter, r *http.Request, ticker string) {
	ctx := r.Context()

	if r.URL.Query().Get("history") == "true" {
		reports, err := s.app.Storage.ReportStore().ListReports(ctx, ticker)
		if err != nil {
			s.logger.Error().Err(err).Str("ticker", ticker).Msg("Failed to list reports")
			WriteError(w, http.StatusInternalServerError, "Failed to list reports")
			return
		}
		WriteJSON(w, http.StatusOK, reports)
		return
	}

	report, err := s.app.Reports.GetToday(ctx, ticker)
	if err != nil {
		if errors.Is(err, interfaces.ErrReportNotFound) {
			WriteError(w, http.StatusNotFound, "No report for "+ticker+" today")
			return
		}
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Failed to get report")
		WriteError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// handleReportCreate is the ad-hoc generation path: get-or-create with
// the same concurrency guarantees as the daily pipeline.
func (s *Server) handleReportCreate(w http.ResponseWriter, r *http.Request, ticker string) {
	report, err := s.app.Reports.GetOrCreate(r.Context(), ticker)
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Ad-hoc report generation failed")
		WriteError(w, http.StatusInternalServerError, "Report generation failed: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// handleCollect triggers price and news collection for the given
// tickers, or for all subscribed tickers when none are given.
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Tickers []string `json:"tickers"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	tickers := req.Tickers
	if len(tickers) == 0 {
		var err error
		tickers, err = s.app.Subscriptions.SubscribedTickers(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to list subscribed tickers")
			WriteError(w, http.StatusInternalServerError, "Failed to list subscribed tickers")
			return
		}
	}
	for i := range tickers {
		tickers[i] = strings.ToUpper(strings.TrimSpace(tickers[i]))
	}

	prices := s.app.Collector.CollectPrices(ctx, tickers)
	news := s.app.Collector.CollectNews(ctx, tickers)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tickers": tickers,
		"prices":  prices,
		"news":    news,
	})
}

// handleAdminRun triggers a full pipeline pass. force=true bypasses the
// business-day gate.
func (s *Server) handleAdminRun(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	force := r.URL.Query().Get("force") == "true"

	run, err := s.app.Orchestrator.RunOnce(r.Context(), force)
	if err != nil {
		s.logger.Error().Err(err).Msg("Manual pipeline run failed")
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, run)
}
