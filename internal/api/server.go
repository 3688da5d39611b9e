// Package api provides the HTTP and WebSocket server.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atlas-desktop/quantbt/internal/backtester"
	"github.com/atlas-desktop/quantbt/internal/data"
	"github.com/atlas-desktop/quantbt/internal/runner"
	"github.com/atlas-desktop/quantbt/internal/strategy"
	"github.com/atlas-desktop/quantbt/pkg/types"
)

// Server is the HTTP/WebSocket API server.
type Server struct {
	mu         sync.RWMutex
	logger     *zap.Logger
	config     *types.ServerConfig
	router     *mux.Router
	httpServer *http.Server
	hub        *Hub
	store      *data.Store
	registry   *strategy.Registry
	runner     *runner.Runner
	gatherer   prometheus.Gatherer
	runs       map[string]*RunState
}

// RunState tracks one backtest run through its lifecycle.
type RunState struct {
	ID       string                    `json:"id"`
	Request  BacktestRequest           `json:"request"`
	Status   string                    `json:"status"`
	Started  time.Time                 `json:"started"`
	Error    string                    `json:"error,omitempty"`
	Result   *backtester.Result        `json:"-"`
	Options  *backtester.OptionsResult `json:"-"`
	Progress types.RunProgress         `json:"progress"`
}

// BacktestRequest is the POST /backtests body.
type BacktestRequest struct {
	Symbol         string          `json:"symbol"`
	Strategy       string          `json:"strategy"`
	Options        bool            `json:"options"`
	InitialCapital decimal.Decimal `json:"initialCapital"`
	Commission     decimal.Decimal `json:"commission"`
	RiskFreeRate   decimal.Decimal `json:"riskFreeRate"`
}

// CompareRequest is the POST /compare body.
type CompareRequest struct {
	Symbol     string   `json:"symbol"`
	Strategies []string `json:"strategies"`
}

// NewServer creates the API server.
func NewServer(logger *zap.Logger, config *types.ServerConfig, store *data.Store, registry *strategy.Registry, run *runner.Runner, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		logger:   logger,
		config:   config,
		router:   mux.NewRouter(),
		hub:      NewHub(logger.Named("ws"), config.MaxConnections),
		store:    store,
		registry: registry,
		runner:   run,
		gatherer: gatherer,
		runs:     make(map[string]*RunState),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/v1/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/v1/strategies", s.handleStrategies).Methods("GET")
	s.router.HandleFunc("/api/v1/data/symbols", s.handleSymbols).Methods("GET")
	s.router.HandleFunc("/api/v1/data/history/{symbol}", s.handleHistory).Methods("GET")
	s.router.HandleFunc("/api/v1/backtests", s.handleRunBacktest).Methods("POST")
	s.router.HandleFunc("/api/v1/backtests/{id}", s.handleGetBacktest).Methods("GET")
	s.router.HandleFunc("/api/v1/backtests/{id}/trades", s.handleGetTrades).Methods("GET")
	s.router.HandleFunc("/api/v1/compare", s.handleCompare).Methods("POST")

	if s.config.EnableMetrics {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.HandleFunc(s.config.WebSocketPath, s.hub.HandleConnection)
}

// Start begins serving. It blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting API server", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the route table, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"equity":  s.registry.List(),
		"options": s.registry.ListOptions(),
	})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.store.Symbols()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"symbols": symbols})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	series, err := s.store.Load(symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	bars := make([]types.PriceBar, series.Len())
	for i := 0; i < series.Len(); i++ {
		bars[i] = series.Bar(i)
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"bars":   bars,
		"count":  len(bars),
	})
}

func (s *Server) handleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" || req.Strategy == "" {
		http.Error(w, "symbol and strategy are required", http.StatusBadRequest)
		return
	}

	series, err := s.store.Load(req.Symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	state := &RunState{
		ID:      uuid.New().String(),
		Request: req,
		Status:  "running",
		Started: time.Now(),
	}

	s.mu.Lock()
	s.runs[state.ID] = state
	s.mu.Unlock()

	go s.runAsync(state, series)

	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":      state.ID,
		"status":  state.Status,
		"started": state.Started.Unix(),
	})
}

// runAsync executes one run in the background and broadcasts progress and
// completion over the hub.
func (s *Server) runAsync(state *RunState, series *types.PriceSeries) {
	config := s.configFor(state.Request)

	onProgress := func(p types.RunProgress) {
		s.mu.Lock()
		state.Progress = p
		s.mu.Unlock()
		s.hub.Broadcast("backtest:progress", p)
	}

	var summary interface{}
	var err error
	var result *backtester.Result
	var optResult *backtester.OptionsResult
	if state.Request.Options {
		optResult, err = s.runner.RunOptions(context.Background(), series, state.Request.Strategy, config, onProgress)
		if err == nil {
			summary = optionsSummary(optResult)
		}
	} else {
		result, err = s.runner.Run(context.Background(), series, state.Request.Strategy, config, onProgress)
		if err == nil {
			summary = resultSummary(result)
		}
	}

	// Every mutation of shared run state happens under the lock; handlers
	// read the same fields while the run is in flight.
	s.mu.Lock()
	if err != nil {
		state.Status = "failed"
		state.Error = err.Error()
		s.logger.Error("Backtest failed", zap.String("id", state.ID), zap.Error(err))
	} else {
		state.Result = result
		state.Options = optResult
		state.Status = "completed"
	}
	s.mu.Unlock()

	s.hub.Broadcast("backtest:complete", map[string]interface{}{
		"id":     state.ID,
		"status": state.Status,
		"result": summary,
	})
}

func (s *Server) handleGetBacktest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.RLock()
	state, ok := s.runs[id]
	if !ok {
		s.mu.RUnlock()
		http.Error(w, "Backtest not found", http.StatusNotFound)
		return
	}

	// Snapshot the fields under the lock; the background run mutates them.
	response := map[string]interface{}{
		"id":      state.ID,
		"status":  state.Status,
		"started": state.Started.Unix(),
	}
	if state.Error != "" {
		response["error"] = state.Error
	}
	if state.Status == "running" {
		response["progress"] = state.Progress
	}
	result, optResult := state.Result, state.Options
	s.mu.RUnlock()

	// Results are immutable once assigned.
	if result != nil {
		response["result"] = resultSummary(result)
	}
	if optResult != nil {
		response["result"] = optionsSummary(optResult)
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.RLock()
	state, ok := s.runs[id]
	if !ok {
		s.mu.RUnlock()
		http.Error(w, "Backtest not found", http.StatusNotFound)
		return
	}
	result, optResult := state.Result, state.Options
	s.mu.RUnlock()

	switch {
	case result != nil:
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"id": id, "trades": result.Trades, "count": len(result.Trades),
		})
	case optResult != nil:
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"id": id, "trades": optResult.Trades, "count": len(optResult.Trades),
		})
	default:
		http.Error(w, "Backtest not complete", http.StatusBadRequest)
	}
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	series, err := s.store.Load(req.Symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	config := types.DefaultBacktestConfig("")
	entries := s.runner.Compare(r.Context(), series, req.Strategies, config)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  req.Symbol,
		"ranking": entries,
	})
}

func (s *Server) configFor(req BacktestRequest) *types.BacktestConfig {
	config := types.DefaultBacktestConfig(req.Strategy)
	if req.InitialCapital.IsPositive() {
		config.InitialCapital = req.InitialCapital
	}
	if !req.Commission.IsZero() {
		config.Commission = req.Commission
	}
	if !req.RiskFreeRate.IsZero() {
		config.RiskFreeRate = req.RiskFreeRate
	}
	return config
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// resultSummary flattens a result with its derived metrics for transport.
func resultSummary(r *backtester.Result) map[string]interface{} {
	return map[string]interface{}{
		"strategy":       r.StrategyName,
		"initialCapital": r.InitialCapital,
		"finalCapital":   r.FinalCapital,
		"totalReturn":    r.TotalReturn(),
		"winRate":        r.WinRate(),
		"profitFactor":   r.ProfitFactor(),
		"averageWin":     r.AverageWin(),
		"averageLoss":    r.AverageLoss(),
		"maxDrawdown":    r.MaxDrawdown(),
		"sharpeRatio":    r.SharpeRatio(),
		"trades":         len(r.Trades),
		"startDate":      r.StartDate,
		"endDate":        r.EndDate,
	}
}

func optionsSummary(r *backtester.OptionsResult) map[string]interface{} {
	return map[string]interface{}{
		"strategy":       r.StrategyName,
		"initialCapital": r.InitialCapital,
		"finalCapital":   r.FinalCapital,
		"totalReturn":    r.TotalReturn(),
		"winRate":        r.WinRate(),
		"profitFactor":   r.ProfitFactor(),
		"averageWin":     r.AverageWin(),
		"averageLoss":    r.AverageLoss(),
		"maxDrawdown":    r.MaxDrawdown(),
		"sharpeRatio":    r.SharpeRatio(),
		"trades":         len(r.Trades),
		"startDate":      r.StartDate,
		"endDate":        r.EndDate,
	}
}
