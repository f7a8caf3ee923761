package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.evaluator/pkg/bank"
	"digital.vasic.evaluator/pkg/evaluator"
	"digital.vasic.evaluator/pkg/exercise"
	"digital.vasic.evaluator/pkg/metrics"
)

const lessonBank = `{
  "version": "1.0",
  "lessons": [{
    "id": "functions",
    "exercises": [{
      "id": "add",
      "testCases": [{"description": "add(2, 3) === 5", "test": "return exports.add(2, 3) === 5"}]
    }]
  }]
}`

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, *EventCollector, *httptest.Server) {
	t.Helper()
	collector := NewEventCollector()
	e := evaluator.NewEvaluator(evaluator.WithObserver(collector))
	s := NewServer(":0", collector, append([]ServerOption{WithEvaluator(e)}, opts...)...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, collector, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", strings.NewReader(string(data)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeReport(t *testing.T, resp *http.Response) exercise.Report {
	t.Helper()
	var r exercise.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	return r
}

func TestServer_Health(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestServer_EvaluateAdHoc(t *testing.T) {
	_, collector, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/evaluate", map[string]any{
		"code":       "exports.add = (a, b) => a + b",
		"exerciseId": "add",
		"testCases": []map[string]string{
			{"description": "add(2, 3) === 5", "test": "return exports.add(2, 3) === 5"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	r := decodeReport(t, resp)
	assert.True(t, r.Passed)
	require.Len(t, r.Results, 1)
	assert.Equal(t, 1, collector.Stats().Passed)
}

func TestServer_EvaluateNoCode(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/evaluate", map[string]any{
		"testCases": []map[string]string{{"description": "d", "test": "return true"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	r := decodeReport(t, resp)
	assert.Equal(t, exercise.NoCodeMessage, r.CompilationError)
	assert.Equal(t, exercise.NoCodeMessage, r.Results[0].Error)
}

func TestServer_EvaluateFromBank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	require.NoError(t, os.WriteFile(path, []byte(lessonBank), 0644))
	b := bank.New()
	require.NoError(t, b.LoadFile(path))

	_, _, ts := newTestServer(t, WithBank(b))

	resp := postJSON(t, ts.URL+"/evaluate", map[string]any{
		"code":       "exports.add = (a, b) => a - b",
		"lessonId":   "functions",
		"exerciseId": "add",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	r := decodeReport(t, resp)
	assert.False(t, r.Passed)
	assert.Equal(t, "add(2, 3) === 5", r.Results[0].Description)

	resp = postJSON(t, ts.URL+"/evaluate", map[string]any{
		"code":       "exports.add = 1",
		"lessonId":   "functions",
		"exerciseId": "missing",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_EvaluateErrors(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/evaluate", "application/json", strings.NewReader("{bad"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/evaluate")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestServer_EvaluateDisabled(t *testing.T) {
	s := NewServer(":0", NewEventCollector())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/evaluate", map[string]any{"code": "exports.x = 1"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_EvaluateAtCapacity(t *testing.T) {
	s, _, ts := newTestServer(t, WithMaxConcurrent(1))
	s.currentLoad.Store(1)

	resp := postJSON(t, ts.URL+"/evaluate", map[string]any{"code": "exports.x = 1"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestServer_Check(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/check", map[string]string{"code": "exports.x = ("})
	var bad CheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bad))
	assert.False(t, bad.Valid)
	require.NotNil(t, bad.Error)
	assert.NotEmpty(t, *bad.Error)

	resp = postJSON(t, ts.URL+"/check", map[string]string{"code": "exports.x = 1"})
	var good CheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&good))
	assert.True(t, good.Valid)
	assert.Nil(t, good.Error)
}

func TestServer_CheckDoesNotRunWrapperEscape(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/check", map[string]string{
		"code": "}); for (;;) {} (function(){",
	})
	var res CheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.False(t, res.Valid)
	require.NotNil(t, res.Error)
	assert.Equal(t, "Unexpected token }", *res.Error)
}

func TestServer_StatsAndDashboard(t *testing.T) {
	_, collector, ts := newTestServer(t)
	collector.Emit(EvaluationEvent{Type: EventPassed, ExerciseID: "a"})

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var stats CollectorStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Passed)

	resp2, err := http.Get(ts.URL + "/dashboard")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var snap DashboardSnapshot
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&snap))
	assert.Equal(t, "passed", snap.Exercises["a"].Status)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm, err := metrics.NewPrometheusMetrics(reg)
	require.NoError(t, err)

	collector := NewEventCollector()
	e := evaluator.NewEvaluator(evaluator.WithMetrics(pm), evaluator.WithObserver(collector))
	s := NewServer(":0", collector, WithEvaluator(e), WithGatherer(reg))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	postJSON(t, ts.URL+"/evaluate", map[string]any{"code": "exports.x = ("})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `evaluator_evaluations_total{outcome="compilation_error"} 1`)
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readWS(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServer_WebSocketStream(t *testing.T) {
	s, collector, ts := newTestServer(t)
	conn := dialWS(t, ts)

	first := readWS(t, conn)
	assert.Equal(t, "dashboard", first.Type)
	assert.Equal(t, 1, s.ClientCount())

	collector.Emit(EvaluationEvent{Type: EventFailed, ExerciseID: "a", Message: "wrong"})

	msg := readWS(t, conn)
	require.Equal(t, "event", msg.Type)
	var event EvaluationEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, EventFailed, event.Type)
	assert.Equal(t, "wrong", event.Message)
}

func TestServer_WebSocketEvaluation(t *testing.T) {
	_, _, ts := newTestServer(t)
	conn := dialWS(t, ts)
	readWS(t, conn)

	postJSON(t, ts.URL+"/evaluate", map[string]any{
		"code":       "exports.ok = true",
		"exerciseId": "ok",
		"testCases":  []map[string]string{{"description": "ok", "test": "return exports.ok"}},
	})

	var types []EventType
	for len(types) < 2 {
		msg := readWS(t, conn)
		var event EvaluationEvent
		require.NoError(t, json.Unmarshal(msg.Data, &event))
		types = append(types, event.Type)
	}
	assert.Equal(t, []EventType{EventStarted, EventPassed}, types)
}

func TestServer_WebSocketDisconnect(t *testing.T) {
	s, _, ts := newTestServer(t)
	conn := dialWS(t, ts)
	readWS(t, conn)
	require.Equal(t, 1, s.ClientCount())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return s.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_StartStop(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	s := NewServer(addr, NewEventCollector())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.NoError(t, <-errCh)
}

func TestServer_StartPortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	s := NewServer(listener.Addr().String(), NewEventCollector())
	err = s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitor server")
}

func TestServer_StopBeforeStart(t *testing.T) {
	s := NewServer(":0", NewEventCollector())
	assert.NoError(t, s.Stop(context.Background()))
}
