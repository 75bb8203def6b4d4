// Package httpapi implements the BLE variant's HTTP JSON control surface
// (spec.md §6), the BLE-side analogue of unixapi's line protocol. It talks
// to the same hidprofile.InputEngine and hidprofile.AbsoluteMouse types the
// daemon assembles, and additionally surfaces recent connection history for
// /healthz.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jadeai/bthid/internal/configsvc"
	"github.com/jadeai/bthid/internal/hidprofile"
	"github.com/jadeai/bthid/internal/historysvc"
)

// DefaultBindAddr matches configsvc.DefaultDeviceConfig's HTTPBindAddr.
const DefaultBindAddr = "0.0.0.0:8003"

// Server serves spec.md §6's BLE HTTP API over net/http, the same way the
// classic variant serves its line protocol over a UNIX socket.
type Server struct {
	log           *zap.Logger
	addr          string
	state         *hidprofile.State
	input         *hidprofile.InputEngine
	mouse         *hidprofile.AbsoluteMouse
	history       *historysvc.Service
	defaultButton configsvc.ButtonMask

	mux        *http.ServeMux
	httpServer *http.Server
}

// New builds a Server. mouse and history may be nil; mouse being nil makes
// /hid/click and /hid/move respond with 501, and history being nil makes
// /healthz omit recent events. defaultButton is the button /hid/click uses
// when the request body doesn't name one.
func New(log *zap.Logger, addr string, state *hidprofile.State, in *hidprofile.InputEngine, mouse *hidprofile.AbsoluteMouse, history *historysvc.Service, defaultButton configsvc.ButtonMask) *Server {
	if addr == "" {
		addr = DefaultBindAddr
	}
	if defaultButton == 0 {
		defaultButton = configsvc.ButtonLeft
	}
	s := &Server{log: log, addr: addr, state: state, input: in, mouse: mouse, history: history, defaultButton: defaultButton}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/hid/text", s.handleText)
	mux.HandleFunc("/hid/click", s.handleClick)
	mux.HandleFunc("/hid/move", s.handleMove)
	s.mux = mux
	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Handler returns the server's routes as an http.Handler, for tests that
// want to drive it via httptest without binding a real listener.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving in a background goroutine and returns nil at once.
// It does not wait for the listener to bind; a bind or serve failure is
// logged, not returned.
func (s *Server) Start() error {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("httpapi: serve failed", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown gracefully stops the server within the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type healthzResponse struct {
	Status     string              `json:"status"`
	HIDRunning bool                `json:"hid_running"`
	LEDs       hidprofile.LEDFlags `json:"leds"`
	LastEvents []historysvc.Event  `json:"last_events,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthzResponse{Status: "ok", HIDRunning: s.state.IsConnected(), LEDs: s.state.LEDFlags()}
	if s.history != nil {
		if events, err := s.history.Recent(10); err == nil {
			resp.LastEvents = events
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	if err := s.input.TypeText(ctx, req.Text); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type clickRequest struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Button string `json:"button"`
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.mouse == nil {
		writeErr(w, http.StatusNotImplemented, "absolute pointing not available on this transport")
		return
	}
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	mask := s.defaultButton
	if req.Button != "" {
		parsed, err := configsvc.ParseButtonMask(req.Button)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		mask = parsed
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	if err := s.mouse.ClickAt(ctx, req.X, req.Y, uint8(mask)); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type moveRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.mouse == nil {
		writeErr(w, http.StatusNotImplemented, "absolute pointing not available on this transport")
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	if err := s.mouse.MoveTo(ctx, req.X, req.Y); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
