// Package chi exposes the catalog search and order preview API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/catalink/catalink/internal/domain"
	domord "github.com/catalink/catalink/internal/domain/order"
	"github.com/catalink/catalink/internal/domain/search/request"
	orderuc "github.com/catalink/catalink/internal/usecase/order"
	searchuc "github.com/catalink/catalink/internal/usecase/search"
	"github.com/catalink/catalink/internal/xrpc"
)

// QueryParser turns free text into structured search items.
type QueryParser interface {
	Parse(ctx context.Context, text string) ([]request.Item, error)
}

// ERPProbe checks that the upstream ERP answers at all.
type ERPProbe interface {
	Version(ctx context.Context) (xrpc.Value, error)
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	search *searchuc.Service
	orders *orderuc.Service
	parser QueryParser
	probe  ERPProbe
	logger *zap.Logger
}

// NewServer creates the HTTP API server. The parser may be nil; search
// requests then accept only pre-structured items or a literal query.
func NewServer(
	search *searchuc.Service,
	orders *orderuc.Service,
	parser QueryParser,
	probe ERPProbe,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search: search,
		orders: orders,
		parser: parser,
		probe:  probe,
		logger: logger,
	}
}

// Routes mounts all handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/catalog/search", s.CatalogSearch)
	r.Post("/v1/orders/preview", s.OrderPreview)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type searchItemDTO struct {
	Terms    []string `json:"terms"`
	Supplier string   `json:"supplier,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Quantity int      `json:"quantity,omitempty"`
}

type searchRequestDTO struct {
	Query string          `json:"query,omitempty"`
	Items []searchItemDTO `json:"items,omitempty"`
}

type candidateDTO struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	DisplayName  string  `json:"display_name,omitempty"`
	Code         string  `json:"code,omitempty"`
	Price        string  `json:"price"`
	Category     string  `json:"category,omitempty"`
	QtyAvailable float64 `json:"qty_available"`
	Score        float64 `json:"score"`
}

type outcomeDTO struct {
	Query      string         `json:"query"`
	Strategy   string         `json:"strategy"`
	Failed     bool           `json:"failed"`
	Candidates []candidateDTO `json:"candidates"`
}

type searchResponseDTO struct {
	BatchID   string       `json:"batch_id"`
	ElapsedMS int64        `json:"elapsed_ms"`
	Outcomes  []outcomeDTO `json:"outcomes"`
}

// CatalogSearch handles POST /v1/catalog/search.
func (s *Server) CatalogSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	items, err := s.resolveItems(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrParserUnavailable):
		s.handleDomainError(w, err)
		return
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", safeValidationMessage(err))
		return
	}

	outcomes, report, err := s.search.SearchAll(r.Context(), items)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	failed := make(map[int]struct{}, len(report.FailedItems))
	for _, i := range report.FailedItems {
		failed[i] = struct{}{}
	}

	resp := searchResponseDTO{
		BatchID:   report.BatchID,
		ElapsedMS: report.Elapsed.Milliseconds(),
		Outcomes:  make([]outcomeDTO, len(outcomes)),
	}
	for i, out := range outcomes {
		dto := outcomeDTO{
			Query:      out.Item().Joined(),
			Strategy:   string(out.Strategy()),
			Candidates: make([]candidateDTO, 0, len(out.Candidates())),
		}
		if _, ok := failed[i]; ok {
			dto.Failed = true
		}
		for _, c := range out.Candidates() {
			p := c.Product()
			dto.Candidates = append(dto.Candidates, candidateDTO{
				ID:           p.ID,
				Name:         p.Name,
				DisplayName:  p.DisplayName,
				Code:         p.Code,
				Price:        p.UnitPrice.String(),
				Category:     p.Category.Label(),
				QtyAvailable: p.QtyAvailable,
				Score:        c.Score(),
			})
		}
		resp.Outcomes[i] = dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveItems builds the item batch from explicit items when given,
// otherwise from the parsed query. A down parser degrades to treating the
// whole query as one literal item.
func (s *Server) resolveItems(ctx context.Context, req searchRequestDTO) ([]request.Item, error) {
	if len(req.Items) > 0 {
		items := make([]request.Item, 0, len(req.Items))
		for _, dto := range req.Items {
			item, err := itemFromDTO(dto)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.ErrNoItems
	}
	if s.parser != nil {
		items, err := s.parser.Parse(ctx, query)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, domain.ErrParserUnavailable) {
			return nil, err
		}
		s.logger.Warn("query parser unavailable, falling back to literal search", zap.Error(err))
	}
	// The whole query becomes a single term: every search tier then matches
	// the joined phrase, and long queries never trip the term cap.
	item, err := request.New([]string{query}, "", decimal.NullDecimal{}, 1)
	if err != nil {
		return nil, err
	}
	return []request.Item{item}, nil
}

func itemFromDTO(dto searchItemDTO) (request.Item, error) {
	ceiling := decimal.NullDecimal{}
	if dto.MaxPrice != nil && *dto.MaxPrice > 0 {
		ceiling = decimal.NewNullDecimal(decimal.NewFromFloat(*dto.MaxPrice))
	}
	quantity := dto.Quantity
	if quantity < 1 {
		quantity = 1
	}
	return request.New(dto.Terms, strings.TrimSpace(dto.Supplier), ceiling, quantity)
}

type previewLineDTO struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Supplier  string `json:"supplier,omitempty"`
	Quantity  int    `json:"quantity"`
}

type previewRequestDTO struct {
	Lines []previewLineDTO `json:"lines"`
}

type adjustedLineDTO struct {
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name"`
	Requested  int    `json:"requested"`
	Adjusted   int    `json:"adjusted"`
	MOQ        int    `json:"moq"`
	MOQApplied bool   `json:"moq_applied"`
	UnitPrice  string `json:"unit_price,omitempty"`
	Source     string `json:"source"`
}

type previewResponseDTO struct {
	Lines []adjustedLineDTO `json:"lines"`
}

// OrderPreview handles POST /v1/orders/preview.
func (s *Server) OrderPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "at least one line is required")
		return
	}

	reqs := make([]orderuc.LineRequest, len(req.Lines))
	for i, line := range req.Lines {
		if strings.TrimSpace(line.Name) == "" {
			writeError(w, http.StatusBadRequest, "validation_failed", "line name is required")
			return
		}
		reqs[i] = orderuc.LineRequest{
			Product: domord.ProductRef{
				ID:       line.ProductID,
				Name:     line.Name,
				Supplier: line.Supplier,
			},
			Quantity: line.Quantity,
		}
	}

	lines := s.orders.ApplyMOQ(r.Context(), reqs)
	resp := previewResponseDTO{Lines: make([]adjustedLineDTO, len(lines))}
	for i, line := range lines {
		dto := adjustedLineDTO{
			ProductID:  line.Product().ID,
			Name:       line.Product().Name,
			Requested:  line.Requested(),
			Adjusted:   line.Adjusted(),
			MOQ:        line.MOQ(),
			MOQApplied: line.MOQApplied(),
			Source:     string(line.Source()),
		}
		if price := line.UnitPrice(); price.Valid {
			dto.UnitPrice = price.Decimal.String()
		}
		resp.Lines[i] = dto
	}
	writeJSON(w, http.StatusOK, resp)
}

type healthResponseDTO struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /healthz. It reports degraded when the ERP does
// not answer its version probe.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"erp": "ok"}
	status := "healthy"
	httpStatus := http.StatusOK

	if s.probe != nil {
		if _, err := s.probe.Version(r.Context()); err != nil {
			checks["erp"] = "error"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			s.logger.Warn("erp health probe failed", zap.Error(err))
		}
	}

	writeJSON(w, httpStatus, healthResponseDTO{Status: status, Checks: checks})
}

type errorResponseDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponseDTO{Code: code, Message: message})
}

// safeDomainMessage leaks only sentinel messages to the client.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNoItems,
		domain.ErrParserUnavailable,
		domain.ErrEmptyOrder,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// safeValidationMessage is the one spot where non-sentinel errors reach the
// client: item validation messages carry no internals.
func safeValidationMessage(err error) string {
	if errors.Is(err, domain.ErrNoItems) {
		return domain.ErrNoItems.Error()
	}
	return err.Error()
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	switch {
	case errors.Is(err, domain.ErrNoItems), errors.Is(err, domain.ErrEmptyOrder):
		writeError(w, http.StatusBadRequest, "validation_failed", msg)
	case errors.Is(err, domain.ErrParserUnavailable):
		writeError(w, http.StatusBadGateway, "parser_unavailable", msg)
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
