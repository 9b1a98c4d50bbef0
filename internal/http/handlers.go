package http

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"orcamento/internal/core"
	"orcamento/internal/engine"
	applog "orcamento/internal/log"
	"orcamento/internal/services"
)

const (
	splitModeFloor   = "floor"
	splitModeRounded = "rounded"
)

type createTransactionRequest struct {
	Transaction  core.Transaction `json:"transaction"`
	Installments int              `json:"installments"`
}

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
}

type createRecurringRequest struct {
	Item         core.RecurringItem `json:"item"`
	ShareEqually bool               `json:"shareEqually"`
}

type equalSplitRequest struct {
	Total   decimal.Decimal `json:"total"`
	Members []core.MemberID `json:"members"`
	Mode    string          `json:"mode"`
}

type equalSplitResponse struct {
	Entries []core.SplitEntry `json:"entries"`
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	member := ParseMember(r.URL.Query())
	dash, err := s.deriver.Dashboard(r.Context(), s.now(), member)
	if err != nil {
		s.internalError(w, r, err, "dashboard")
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	first, last := monthBounds(s.today())

	rng, err := ParseDateRange(query, DateRange{Start: first, End: last})
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	summary, err := s.deriver.Summary(r.Context(), rng.Start, rng.End, ParseMember(query))
	if err != nil {
		s.internalError(w, r, err, "summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	txns, err := s.deriver.MonthTransactions(r.Context(), params.Year, params.Month)
	if err != nil {
		s.internalError(w, r, err, "month transactions")
		return
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: txns})
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	horizon, err := ParseHorizon(r.URL.Query(), s.deriver.Horizon())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	months, err := s.deriver.Projection(r.Context(), s.now(), horizon)
	if err != nil {
		s.internalError(w, r, err, "projection")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"horizon": horizon, "months": months})
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.deriver.Cards(r.Context(), s.now())
	if err != nil {
		s.internalError(w, r, err, "cards")
		return
	}
	if cards == nil {
		cards = []core.CardInvoice{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deriver.Goals(r.Context(), s.now())
	if err != nil {
		s.internalError(w, r, err, "goals")
		return
	}
	if goals == nil {
		goals = []core.GoalNeed{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if req.Installments < 0 {
		BadRequestError("installments must not be negative").Write(w)
		return
	}

	records, err := s.recorder.RecordTransaction(r.Context(), sanitizeTransaction(req.Transaction), req.Installments)
	if err != nil {
		s.recordError(w, r, err, "record transaction")
		return
	}

	s.metrics.recorded.WithLabelValues(string(records[0].Kind)).Add(float64(len(records)))
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldCount, len(records),
		applog.FieldAmountCents, core.Cents(records[0].Amount))

	writeJSON(w, http.StatusCreated, transactionsResponse{Transactions: records})
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req createRecurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	item, err := s.recorder.AddRecurringItem(r.Context(), sanitizeRecurringItem(req.Item), req.ShareEqually)
	if err != nil {
		s.recordError(w, r, err, "add recurring item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleEqualSplit(w http.ResponseWriter, r *http.Request) {
	var req equalSplitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !req.Total.IsPositive() {
		BadRequestError("total must be positive").Write(w)
		return
	}
	if len(req.Members) == 0 {
		BadRequestError("at least one member is required").Write(w)
		return
	}

	var entries []core.SplitEntry
	switch req.Mode {
	case "", splitModeFloor:
		entries = engine.SplitEqually(req.Total, req.Members)
	case splitModeRounded:
		entries = engine.DistributeRounded(req.Total, req.Members)
	default:
		BadRequestError(`mode must be "floor" or "rounded"`).Write(w)
		return
	}
	writeJSON(w, http.StatusOK, equalSplitResponse{Entries: entries})
}

// recordError maps a Recorder failure to its response.
func (s *Server) recordError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var mismatch *engine.SplitMismatchError
	switch {
	case errors.As(err, &mismatch):
		s.metrics.splitMismatch.Inc()
		NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Body(splitMismatchBody{Error: mismatch.Error(), Sum: mismatch.Sum, Total: mismatch.Total}).
			Write(w)
	case errors.Is(err, services.ErrInvalidRecord):
		BadRequestError(err.Error()).Write(w)
	default:
		s.internalError(w, r, err, op)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, op string) {
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		applog.FieldOperation, op,
		applog.Err(err))
	InternalServerError("internal error").Write(w)
}
