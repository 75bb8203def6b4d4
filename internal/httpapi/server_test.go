package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jadeai/bthid/internal/configsvc"
	"github.com/jadeai/bthid/internal/hidprofile"
	"github.com/jadeai/bthid/internal/httpapi"
)

type nullControlPeer struct{ inbox chan []byte }

func newNullControlPeer() *nullControlPeer { return &nullControlPeer{inbox: make(chan []byte)} }

func (p *nullControlPeer) Recv(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-p.inbox:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
func (p *nullControlPeer) Send(data []byte) error { return nil }
func (p *nullControlPeer) Close() error           { return nil }

type recordingInterruptPeer struct {
	mu   sync.Mutex
	sent [][]byte
}

func (p *recordingInterruptPeer) Send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, append([]byte(nil), data...))
	return nil
}
func (p *recordingInterruptPeer) Close() error { return nil }
func (p *recordingInterruptPeer) reports() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.sent))
	copy(out, p.sent)
	return out
}

type testHarness struct {
	handler http.Handler
	state   *hidprofile.State
	ip      *recordingInterruptPeer
}

func newHarness(t *testing.T, withMouse bool) testHarness {
	t.Helper()
	state := hidprofile.NewState()
	state.AttachControl(newNullControlPeer())
	ip := &recordingInterruptPeer{}
	state.AttachInterrupt(ip)
	require.True(t, state.IsConnected())

	emitter := hidprofile.NewEmitter(state, time.Second)
	in := hidprofile.NewInputEngine(zap.NewNop(), emitter, state, time.Millisecond, time.Millisecond)

	var mouse *hidprofile.AbsoluteMouse
	if withMouse {
		mouse = hidprofile.NewAbsoluteMouse(in, 50, time.Millisecond)
	}

	srv := httpapi.New(zap.NewNop(), "127.0.0.1:0", state, in, mouse, nil, configsvc.ButtonLeft)
	return testHarness{handler: srv.Handler(), state: state, ip: ip}
}

func TestHealthzReportsConnected(t *testing.T) {
	h := newHarness(t, false)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, true, body["hid_running"])
}

func TestTypeEndpointEmitsKeyboardReports(t *testing.T) {
	h := newHarness(t, false)

	body, _ := json.Marshal(map[string]string{"text": "hi"})
	req := httptest.NewRequest(http.MethodPost, "/hid/text", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, h.ip.reports())
}

func TestTypeEndpointRejectsNonPost(t *testing.T) {
	h := newHarness(t, false)

	req := httptest.NewRequest(http.MethodGet, "/hid/text", nil)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMoveEndpointRequiresMouse(t *testing.T) {
	h := newHarness(t, false)

	body, _ := json.Marshal(map[string]int{"x": 10, "y": 10})
	req := httptest.NewRequest(http.MethodPost, "/hid/move", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestMoveEndpointWalksAbsoluteMouse(t *testing.T) {
	h := newHarness(t, true)

	body, _ := json.Marshal(map[string]int{"x": 120, "y": 0})
	req := httptest.NewRequest(http.MethodPost, "/hid/move", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, h.ip.reports())
}

func TestClickEndpointRejectsUnknownButton(t *testing.T) {
	h := newHarness(t, true)

	body, _ := json.Marshal(map[string]interface{}{"x": 1, "y": 1, "button": "nope"})
	req := httptest.NewRequest(http.MethodPost, "/hid/click", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClickEndpointMovesAndClicks(t *testing.T) {
	h := newHarness(t, true)

	body, _ := json.Marshal(map[string]interface{}{"x": 10, "y": 0, "button": "left"})
	req := httptest.NewRequest(http.MethodPost, "/hid/click", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, h.ip.reports())
}

func TestClickEndpointDefaultsToLeftButton(t *testing.T) {
	h := newHarness(t, true)

	body, _ := json.Marshal(map[string]interface{}{"x": 0, "y": 0})
	req := httptest.NewRequest(http.MethodPost, "/hid/click", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// already at (0, 0), so only the press and release are sent
	reports := h.ip.reports()
	require.Len(t, reports, 2)
	require.Equal(t, byte(configsvc.ButtonLeft), reports[0][1])
}
