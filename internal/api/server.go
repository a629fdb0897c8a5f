// Package api implements the control HTTP surface: it creates companies
// and their seed targets, enqueues crawl jobs, and records event
// acknowledgements. It never calls the fetch or PDF adapters directly -
// only the queue. Routes are wired directly against http.ServeMux rather
// than a third-party router, with go-playground/validator/v10 for
// request-body validation at this boundary.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trustwatch/internal/common"
	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/ternarybob/trustwatch/internal/queue"
)

// callerHeader carries the requesting user's opaque id. There is no
// authentication here, so the header is the sole source of the "caller"
// identity used for ownership checks.
const callerHeader = "X-User-Id"

type Server struct {
	storage  interfaces.StorageManager
	jobs     *queue.Store
	logger   arbor.ILogger
	validate *validator.Validate
	mux      *http.ServeMux
}

func NewServer(storage interfaces.StorageManager, jobs *queue.Store, logger arbor.ILogger) *Server {
	s := &Server{
		storage:  storage,
		jobs:     jobs,
		logger:   logger,
		validate: validator.New(),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/companies", s.handleCreateCompany)
	s.mux.HandleFunc("DELETE /api/companies/{id}", s.handleDeleteCompany)
	s.mux.HandleFunc("POST /api/crawl/run", s.handleRunCrawl)
	s.mux.HandleFunc("POST /api/events/{id}/ack", s.handleAckEvent)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"goroutines": common.GetGoroutineCount()})
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get(callerHeader)
	if caller == "" {
		writeError(w, http.StatusUnauthorized, "missing "+callerHeader)
		return
	}

	var req CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	now := time.Now()
	categories := make([]models.Category, 0, len(req.Categories))
	for _, c := range req.Categories {
		categories = append(categories, models.Category(c))
	}

	company := &models.Company{
		ID:          common.NewID("company"),
		UserID:      caller,
		Domain:      req.Domain,
		DisplayName: req.DisplayName,
		Categories:  categories,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.storage.Companies().Save(ctx, company); err != nil {
		writeError(w, http.StatusInternalServerError, "save company")
		return
	}

	urls := deriveSeedURLs(req.Domain, categories)
	targets := make([]*models.CrawlTarget, 0, len(urls))
	for _, url := range urls {
		target := &models.CrawlTarget{
			ID:        common.NewID("target"),
			CompanyID: company.ID,
			URL:       url,
			Kind:      models.TargetSeed,
			CreatedAt: now,
		}
		if err := s.storage.CrawlTargets().Save(ctx, target); err != nil {
			writeError(w, http.StatusInternalServerError, "save crawl target")
			return
		}
		targets = append(targets, target)
	}

	if err := s.enqueueCrawls(ctx, company, targets); err != nil {
		writeError(w, http.StatusInternalServerError, "enqueue crawl jobs")
		return
	}

	writeJSON(w, http.StatusCreated, company)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get(callerHeader)
	id := r.PathValue("id")
	ctx := r.Context()

	company, err := s.storage.Companies().Get(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load company")
		return
	}
	if company == nil || company.UserID != caller {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}

	if err := s.storage.CrawlTargets().DeleteByCompany(ctx, id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete crawl targets")
		return
	}
	if err := s.storage.Companies().Delete(ctx, id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete company")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunCrawl(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get(callerHeader)
	if caller == "" {
		writeError(w, http.StatusUnauthorized, "missing "+callerHeader)
		return
	}

	var req RunCrawlRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	ctx := r.Context()
	var companies []*models.Company
	if req.CompanyID != "" {
		company, err := s.storage.Companies().Get(ctx, req.CompanyID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "load company")
			return
		}
		if company == nil || company.UserID != caller {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		companies = []*models.Company{company}
	} else {
		owned, err := s.storage.Companies().ListByUser(ctx, caller)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list companies")
			return
		}
		companies = owned
	}

	enqueued := 0
	for _, company := range companies {
		targets, err := s.storage.CrawlTargets().ListByCompany(ctx, company.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list crawl targets")
			return
		}
		if err := s.enqueueCrawls(ctx, company, targets); err != nil {
			writeError(w, http.StatusInternalServerError, "enqueue crawl jobs")
			return
		}
		enqueued += len(targets)
	}

	writeJSON(w, http.StatusAccepted, map[string]int{"enqueued": enqueued})
}

func (s *Server) handleAckEvent(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get(callerHeader)
	id := r.PathValue("id")
	ctx := r.Context()

	event, err := s.storage.ChangeEvents().Get(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load event")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	company, err := s.storage.Companies().Get(ctx, event.CompanyID)
	if err != nil || company == nil || company.UserID != caller {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	if err := s.storage.ChangeEvents().Acknowledge(ctx, id, time.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, "acknowledge event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) enqueueCrawls(ctx context.Context, company *models.Company, targets []*models.CrawlTarget) error {
	for _, target := range targets {
		payload := queue.CrawlTargetPayload{CompanyID: company.ID, TargetID: target.ID, URL: target.URL}
		key := queue.IdempotencyKeyForCrawl(company.ID, target.ID)
		if _, err := s.jobs.Enqueue(ctx, queue.CrawlTarget, payload, key, queue.PriorityCrawl); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
