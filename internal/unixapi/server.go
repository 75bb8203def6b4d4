// Package unixapi implements the classic variant's local control protocol:
// a line-delimited ASCII command set served over a UNIX-domain stream
// socket, so a co-located process can drive the HID profile without
// depending on the Bluetooth transport at all.
package unixapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"go.uber.org/zap"

	"github.com/jadeai/bthid/internal/hidprofile"
	"github.com/jadeai/bthid/internal/historysvc"
)

// DefaultSocketPath is spec.md §6's fixed classic-variant control socket.
const DefaultSocketPath = "/tmp/jadeai-bthid.sock"

// Server accepts line-protocol connections and dispatches each line to the
// shared HID profile. Multiple connections may be attached concurrently;
// each gets its own read loop.
type Server struct {
	log     *zap.Logger
	path    string
	input   *hidprofile.InputEngine
	state   *hidprofile.State
	history *historysvc.Service

	listener net.Listener
}

// New builds a Server bound to path, serving input through in and reading
// shared state from state. history may be nil, in which case STATUS omits
// recent events.
func New(log *zap.Logger, path string, in *hidprofile.InputEngine, state *hidprofile.State, history *historysvc.Service) *Server {
	if path == "" {
		path = DefaultSocketPath
	}
	return &Server{log: log, path: path, input: in, state: state, history: history}
}

// Start removes any stale socket file and begins listening.
func (s *Server) Start() error {
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("unixapi: clear stale socket: %w", err)
	}
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("unixapi: listen %s: %w", s.path, err)
	}
	s.listener = ln
	return nil
}

// Close stops accepting and removes the socket file.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	os.RemoveAll(s.path)
	return err
}

// Serve accepts connections until ctx is cancelled or the listener closes.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("unixapi: accept: %w", err)
			}
		}
		go s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		resp := s.dispatch(ctx, line)
		if _, err := conn.Write([]byte(resp + "\n")); err != nil {
			s.log.Warn("unixapi: write response failed", zap.Error(err))
			return
		}
		if line == "SHUTDOWN" {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, line string) string {
	cmd, rest := splitCommand(line)
	switch cmd {
	case "TYPE":
		return s.handleType(ctx, rest)
	case "MOVE":
		return s.handleMove(ctx, rest)
	case "CLICK":
		return s.handleClick(ctx, rest)
	case "STATUS":
		return s.handleStatus()
	case "DISCONNECT":
		s.state.ForceDisconnect()
		if s.history != nil {
			s.history.Record(historysvc.EventDetached, "operator disconnect")
		}
		return "OK"
	case "SHUTDOWN":
		s.state.Shutdown()
		return "OK"
	default:
		return "ERR unknown command " + cmd
	}
}

func splitCommand(line string) (cmd, rest string) {
	parts := strings.SplitN(line, " ", 2)
	cmd = strings.ToUpper(parts[0])
	if len(parts) == 2 {
		rest = parts[1]
	}
	return cmd, rest
}

func (s *Server) handleType(ctx context.Context, rest string) string {
	text := unescapeText(rest)
	if err := s.input.TypeText(ctx, text); err != nil {
		return "ERR " + err.Error()
	}
	return "OK"
}

func (s *Server) handleMove(ctx context.Context, rest string) string {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return "ERR MOVE requires dx dy [wheel]"
	}
	dx, err := strconv.Atoi(fields[0])
	if err != nil {
		return "ERR invalid dx: " + err.Error()
	}
	dy, err := strconv.Atoi(fields[1])
	if err != nil {
		return "ERR invalid dy: " + err.Error()
	}
	wheel := 0
	if len(fields) >= 3 {
		wheel, err = strconv.Atoi(fields[2])
		if err != nil {
			return "ERR invalid wheel: " + err.Error()
		}
	}
	if err := s.input.MoveMouse(ctx, dx, dy, wheel); err != nil {
		return "ERR " + err.Error()
	}
	return "OK"
}

var buttonMasks = map[string]uint8{
	"left":    0x01,
	"right":   0x02,
	"middle":  0x04,
	"button1": 0x01,
	"button2": 0x02,
	"button3": 0x04,
}

func (s *Server) handleClick(ctx context.Context, rest string) string {
	// ToSnake splits digits off ("Button1" -> "button_1"), so the
	// separators are dropped before matching the table.
	name := strings.ReplaceAll(strcase.ToSnake(strings.TrimSpace(rest)), "_", "")
	mask, ok := buttonMasks[name]
	if !ok {
		return "ERR unknown button " + rest
	}
	if err := s.input.Click(ctx, mask); err != nil {
		return "ERR " + err.Error()
	}
	return "OK"
}

type statusPayload struct {
	Connected  bool                `json:"connected"`
	Protocol   string              `json:"protocol"`
	LEDState   int                 `json:"led_state"`
	LEDs       hidprofile.LEDFlags `json:"leds"`
	LastEvents []historysvc.Event  `json:"last_events,omitempty"`
}

func (s *Server) handleStatus() string {
	protocol := "boot"
	if s.state.CurrentProtocol() == 1 {
		protocol = "report"
	}
	payload := statusPayload{
		Connected: s.state.IsConnected(),
		Protocol:  protocol,
		LEDState:  int(s.state.LEDState()),
		LEDs:      s.state.LEDFlags(),
	}
	if s.history != nil {
		if events, err := s.history.Recent(10); err == nil {
			payload.LastEvents = events
		}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "ERR " + err.Error()
	}
	return "OK " + string(b)
}

var escapeReplacer = strings.NewReplacer(
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
	`\\`, `\`,
)

func unescapeText(s string) string {
	return escapeReplacer.Replace(s)
}
