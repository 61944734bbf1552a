package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rpgo/lifedash/internal/calculation"
	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/internal/output"
	"github.com/rpgo/lifedash/internal/planning"
	"github.com/rpgo/lifedash/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var defaultWithdrawalRate = decimal.NewFromInt(4)

// ProjectionRequest is the body of POST /api/v1/projection. Percentages are
// whole numbers; a missing withdrawal rate means 4.
type ProjectionRequest struct {
	CurrentAge           int              `json:"currentAge" validate:"gte=0,lte=120"`
	RetirementAge        int              `json:"retirementAge" validate:"gtefield=CurrentAge,lte=120"`
	Savings              decimal.Decimal  `json:"savings"`
	AnnualSavings        *decimal.Decimal `json:"annualSavings"`
	Income               decimal.Decimal  `json:"income"`
	InvestmentReturnRate decimal.Decimal  `json:"investmentReturnRate"`
	AnnualRaise          decimal.Decimal  `json:"annualRaise"`
	InflationRate        decimal.Decimal  `json:"inflationRate"`
	Pension              decimal.Decimal  `json:"pension"`
	SocialSecurity       decimal.Decimal  `json:"socialSecurity"`
	PostYears            int              `json:"postYears" validate:"gte=0,lte=100"`
	WithdrawalRate       *decimal.Decimal `json:"withdrawalRate"`
}

func (req ProjectionRequest) parameters() domain.ProjectionParameters {
	rate := defaultWithdrawalRate
	if req.WithdrawalRate != nil {
		rate = *req.WithdrawalRate
	}
	return domain.ProjectionParameters{
		CurrentAge:           req.CurrentAge,
		RetirementAge:        req.RetirementAge,
		Savings:              req.Savings,
		AnnualSavings:        req.AnnualSavings,
		Income:               req.Income,
		InvestmentReturnRate: req.InvestmentReturnRate,
		AnnualRaise:          req.AnnualRaise,
		InflationRate:        req.InflationRate,
		Pension:              req.Pension,
		SocialSecurity:       req.SocialSecurity,
		PostYears:            req.PostYears,
		WithdrawalRate:       rate,
	}
}

// ProjectionResponse is the JSON answer of POST /api/v1/projection.
type ProjectionResponse struct {
	Projection *domain.Projection    `json:"projection"`
	Working    []domain.ProjectionRow `json:"working"`
	Retirement []domain.ProjectionRow `json:"retirement"`
	Summary    output.Summary         `json:"summary"`
}

// projection runs the engine. ?format= selects another registered
// formatter instead of the JSON response.
func (s *Server) projection(w http.ResponseWriter, r *http.Request) {
	var req ProjectionRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	params := req.parameters()
	if err := s.params.ValidateParameters(&params); err != nil {
		respondError(w, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}
	proj := calculation.Run(params)

	if format := r.URL.Query().Get("format"); format != "" {
		f, err := output.Lookup(format)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		data, err := f.Format(proj)
		if err != nil {
			s.logger.Error("failed to format projection", zap.String("format", f.Name()), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to format projection")
			return
		}
		w.Header().Set("Content-Type", contentType(f.Extension()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	respondJSON(w, http.StatusOK, ProjectionResponse{
		Projection: proj,
		Working:    proj.Working(),
		Retirement: proj.Retirement(),
		Summary:    output.Summarize(proj),
	})
}

func contentType(ext string) string {
	switch ext {
	case "csv":
		return "text/csv; charset=utf-8"
	case "html":
		return "text/html; charset=utf-8"
	case "json":
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

type socialSecurityQuery struct {
	Income        string `validate:"required,numeric"`
	CurrentAge    string `validate:"required,number"`
	RetirementAge string `validate:"required,number"`
}

func (s *Server) socialSecurity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := socialSecurityQuery{
		Income:        q.Get("income"),
		CurrentAge:    q.Get("currentAge"),
		RetirementAge: q.Get("retirementAge"),
	}
	if err := validate.Struct(in); err != nil {
		respondError(w, http.StatusBadRequest, validationError(err).Error())
		return
	}
	cur, _ := strconv.Atoi(in.CurrentAge)
	ret, _ := strconv.Atoi(in.RetirementAge)
	estimate := calculation.EstimateSocialSecurity(calculation.ParseNumber(in.Income), cur, ret)
	respondJSON(w, http.StatusOK, map[string]int64{"estimate": estimate})
}

// BudgetSummaryRequest is the body of POST /api/v1/budget/summary.
type BudgetSummaryRequest struct {
	Salary           decimal.Decimal            `json:"salary"`
	NetPay           decimal.Decimal            `json:"netPay"`
	Categories       map[string]decimal.Decimal `json:"categories" validate:"required"`
	IncomeCategories map[string]decimal.Decimal `json:"incomeCategories"`
}

func (s *Server) budgetSummary(w http.ResponseWriter, r *http.Request) {
	var req BudgetSummaryRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, calculation.CalculateMonthlyBudget(domain.BudgetInput{
		Salary:           req.Salary,
		NetPay:           req.NetPay,
		Categories:       req.Categories,
		IncomeCategories: req.IncomeCategories,
	}))
}

// flag reads a boolean query parameter; absent or malformed is false.
func flag(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

func (s *Server) storeError(w http.ResponseWriter, uid string, err error) {
	if errors.Is(err, store.ErrNoIdentity) {
		respondError(w, http.StatusUnauthorized, "sign in required")
		return
	}
	s.logger.Error("request failed", zap.String("user", uid), zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}

// PlanningResponse carries the planning record and the form it renders to.
type PlanningResponse struct {
	State domain.PlanningState `json:"state"`
	Form  domain.PlanningForm  `json:"form"`
}

func (s *Server) getPlanning(w http.ResponseWriter, r *http.Request) {
	ws, uid, ok := s.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "sign in required")
		return
	}
	state, err := ws.Planning.Init(r.Context(), store.LoadOptions{
		RecoverLocal: flag(r, "recoverLocal"),
		Confirm:      store.Always(flag(r, "merge")),
	})
	if err != nil {
		s.storeError(w, uid, err)
		return
	}
	respondJSON(w, http.StatusOK, PlanningResponse{State: state, Form: planning.FormFromState(state)})
}

func (s *Server) recompute(w http.ResponseWriter, r *http.Request) {
	ws, uid, ok := s.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "sign in required")
		return
	}
	var form domain.PlanningForm
	if err := decodeBody(w, r, &form); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := ws.Planning.Recompute(r.Context(), form)
	if err != nil {
		s.storeError(w, uid, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	ws, uid, ok := s.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "sign in required")
		return
	}
	hist, err := ws.Planning.History(r.Context())
	if err != nil {
		s.storeError(w, uid, err)
		return
	}
	if hist == nil {
		hist = []domain.HistorySnapshot{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": hist})
}

// BudgetResponse carries the budget record with its computed views.
type BudgetResponse struct {
	Record     domain.Record           `json:"record"`
	Summary    domain.BudgetSummary    `json:"summary"`
	Comparison domain.BudgetComparison `json:"comparison"`
}

func budgetResponse(rec domain.Record) BudgetResponse {
	return BudgetResponse{
		Record:     rec,
		Summary:    calculation.CalculateMonthlyBudget(calculation.CurrentMonthlyBudget(rec)),
		Comparison: calculation.CompareBudget(rec),
	}
}

func (s *Server) getBudget(w http.ResponseWriter, r *http.Request) {
	ws, uid, ok := s.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "sign in required")
		return
	}
	rec, err := ws.Budget.Load(r.Context(), store.Always(flag(r, "upload")))
	if err != nil {
		s.storeError(w, uid, err)
		return
	}
	respondJSON(w, http.StatusOK, budgetResponse(rec))
}

func (s *Server) putBudget(w http.ResponseWriter, r *http.Request) {
	ws, uid, ok := s.workspace(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "sign in required")
		return
	}
	var rec domain.Record
	if err := decodeBody(w, r, &rec); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if rec == nil {
		respondError(w, http.StatusBadRequest, "budget record must be a JSON object")
		return
	}
	saved, err := ws.Budget.Save(r.Context(), rec)
	if err != nil {
		s.storeError(w, uid, err)
		return
	}
	respondJSON(w, http.StatusOK, budgetResponse(saved))
}
