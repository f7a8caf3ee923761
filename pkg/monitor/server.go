package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"digital.vasic.evaluator/pkg/bank"
	"digital.vasic.evaluator/pkg/evaluator"
	"digital.vasic.evaluator/pkg/exercise"
	"digital.vasic.evaluator/pkg/logging"
	"digital.vasic.evaluator/pkg/sandbox"
)

const (
	maxRequestBytes  = 1 << 20
	clientBufferSize = 32
	writeWait        = 5 * time.Second
)

// Server exposes live evaluation events over WebSocket together
// with stats, health, Prometheus metrics and an evaluation
// endpoint.
//
// Routes:
//
//	GET  /ws         event stream (WebSocket)
//	GET  /stats      collector statistics
//	GET  /dashboard  per-exercise dashboard snapshot
//	GET  /health     liveness
//	GET  /metrics    Prometheus metrics
//	POST /evaluate   evaluate a submission
//	POST /check      syntax check only
type Server struct {
	addr      string
	collector *EventCollector
	dashboard *DashboardData
	evaluator evaluator.Evaluator
	bank      *bank.Bank
	gatherer  prometheus.Gatherer
	logger    logging.Logger

	maxConcurrent int32
	currentLoad   atomic.Int32

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	server  *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithEvaluator enables POST /evaluate.
func WithEvaluator(e evaluator.Evaluator) ServerOption {
	return func(s *Server) {
		s.evaluator = e
	}
}

// WithBank lets POST /evaluate resolve exercises by lesson and
// exercise ID.
func WithBank(b *bank.Bank) ServerOption {
	return func(s *Server) {
		s.bank = b
	}
}

// WithGatherer sets the registry served on /metrics. The default
// is prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMaxConcurrent limits concurrent POST /evaluate requests.
func WithMaxConcurrent(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxConcurrent = int32(n)
		}
	}
}

// WithServerLogger sets the server's logger.
func WithServerLogger(l logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a server broadcasting the collector's events.
func NewServer(
	addr string,
	collector *EventCollector,
	opts ...ServerOption,
) *Server {
	s := &Server{
		addr:          addr,
		collector:     collector,
		dashboard:     NewDashboardData(time.Now().Format("20060102_150405")),
		gatherer:      prometheus.DefaultGatherer,
		logger:        logging.NullLogger{},
		maxConcurrent: 4,
		clients:       make(map[*wsClient]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	collector.OnEvent(func(event EvaluationEvent) {
		s.dashboard.UpdateFromEvent(event)
		data, err := jsonMarshal(wsMessage{Type: "event", Data: event})
		if err != nil {
			return
		}
		s.broadcast(data)
	})
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /check", s.handleCheck)
	return mux
}

// Start serves until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = srv.Close()
		s.closeClients()
	}()

	s.logger.Info("monitor_server_starting", logging.StringField("addr", s.addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("monitor server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server and disconnects
// WebSocket clients.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()

	s.closeClients()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.Stats())
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dashboard.Snapshot())
}

// EvaluateRequest is the body of POST /evaluate. When LessonID
// and ExerciseID name an exercise in the bank, its setup code and
// tests are used; otherwise SetupCode and Tests are taken as
// given.
type EvaluateRequest struct {
	Code       string                    `json:"code"`
	SetupCode  string                    `json:"setupCode,omitempty"`
	LessonID   string                    `json:"lessonId,omitempty"`
	ExerciseID string                    `json:"exerciseId,omitempty"`
	Tests      []exercise.TestDefinition `json:"testCases,omitempty"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	current := s.currentLoad.Add(1)
	defer s.currentLoad.Add(-1)

	if current > s.maxConcurrent {
		writeError(w, http.StatusTooManyRequests, fmt.Sprintf(
			"at capacity (%d/%d concurrent evaluations)",
			current, s.maxConcurrent,
		))
		return
	}
	if s.evaluator == nil {
		writeError(w, http.StatusServiceUnavailable, "evaluation is not enabled")
		return
	}

	var body EvaluateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var report *exercise.Report
	if s.bank != nil && body.LessonID != "" && body.ExerciseID != "" {
		ex, ok := s.bank.Exercise(body.LessonID, body.ExerciseID)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf(
				"exercise %s/%s not found", body.LessonID, body.ExerciseID,
			))
			return
		}
		report = s.evaluator.EvaluateExercise(ex, body.Code)
	} else {
		ex := exercise.Exercise{
			ID:        body.ExerciseID,
			LessonID:  body.LessonID,
			SetupCode: body.SetupCode,
			Tests:     body.Tests,
		}
		report = s.evaluator.Evaluate(evaluator.Request{
			Code:       body.Code,
			SetupCode:  body.SetupCode,
			TestCases:  ex.TestCases(),
			LessonID:   body.LessonID,
			ExerciseID: body.ExerciseID,
		})
	}

	writeJSON(w, http.StatusOK, report)
}

// CheckResponse is the body returned by POST /check.
type CheckResponse struct {
	Valid bool    `json:"valid"`
	Error *string `json:"error"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	resp := CheckResponse{Valid: true}
	if msg := sandbox.SyntaxMessage(body.Code); msg != "" {
		resp.Valid = false
		resp.Error = &msg
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := jsonMarshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var jsonMarshal = json.Marshal
