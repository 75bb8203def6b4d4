package unixapi_test

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jadeai/bthid/internal/hidprofile"
	"github.com/jadeai/bthid/internal/unixapi"
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
	cp := append([]byte(nil), data...)
	p.sent = append(p.sent, cp)
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

func newTestServer(t *testing.T) (*unixapi.Server, *hidprofile.State, *recordingInterruptPeer, string) {
	t.Helper()
	state := hidprofile.NewState()
	state.AttachControl(newNullControlPeer())
	ip := &recordingInterruptPeer{}
	state.AttachInterrupt(ip)
	require.True(t, state.IsConnected())

	emitter := hidprofile.NewEmitter(state, time.Second)
	in := hidprofile.NewInputEngine(zap.NewNop(), emitter, state, time.Millisecond, time.Millisecond)

	sockPath := filepath.Join(t.TempDir(), "bthid.sock")
	srv := unixapi.New(zap.NewNop(), sockPath, in, state, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Serve(ctx)

	return srv, state, ip, sockPath
}

func dialAndSend(t *testing.T, path, line string) string {
	t.Helper()
	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("unix", path)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(line + "\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	resp, err := reader.ReadString('\n')
	require.NoError(t, err)
	return resp
}

func TestStatusReportsConnectedAndProtocol(t *testing.T) {
	_, _, _, path := newTestServer(t)
	resp := dialAndSend(t, path, "STATUS")
	require.Contains(t, resp, "OK ")
	require.Contains(t, resp, `"connected":true`)
	require.Contains(t, resp, `"protocol":"report"`)
}

func TestTypeCommandEmitsKeyboardReports(t *testing.T) {
	_, _, ip, path := newTestServer(t)
	resp := dialAndSend(t, path, "TYPE hi")
	require.Equal(t, "OK\n", resp)
	require.NotEmpty(t, ip.reports())
}

func TestTypeCommandUnescapesControlCharacters(t *testing.T) {
	_, _, ip, path := newTestServer(t)
	resp := dialAndSend(t, path, `TYPE a\tb`)
	require.Equal(t, "OK\n", resp)
	// "a", tab, "b" all map to distinct keyboard reports; tab alone still
	// produces a press+release pair like any other mapped rune.
	require.Equal(t, 6, len(ip.reports()))
}

func TestMoveCommandRequiresTwoFields(t *testing.T) {
	_, _, _, path := newTestServer(t)
	resp := dialAndSend(t, path, "MOVE 5")
	require.Contains(t, resp, "ERR")
}

func TestMoveCommandMovesMouse(t *testing.T) {
	_, _, ip, path := newTestServer(t)
	resp := dialAndSend(t, path, "MOVE 10 -5 1")
	require.Equal(t, "OK\n", resp)
	require.NotEmpty(t, ip.reports())
}

func TestClickCommandAcceptsNamedButtons(t *testing.T) {
	_, _, ip, path := newTestServer(t)
	resp := dialAndSend(t, path, "CLICK left")
	require.Equal(t, "OK\n", resp)
	require.Len(t, ip.reports(), 2)
}

func TestClickCommandRejectsUnknownButton(t *testing.T) {
	_, _, _, path := newTestServer(t)
	resp := dialAndSend(t, path, "CLICK spacebar")
	require.Contains(t, resp, "ERR")
}

func TestDisconnectResetsState(t *testing.T) {
	_, state, _, path := newTestServer(t)
	resp := dialAndSend(t, path, "DISCONNECT")
	require.Equal(t, "OK\n", resp)
	require.False(t, state.IsConnected())
}

func TestUnknownCommandReturnsErr(t *testing.T) {
	_, _, _, path := newTestServer(t)
	resp := dialAndSend(t, path, "FROBNICATE")
	require.Contains(t, resp, "ERR unknown command FROBNICATE")
}
