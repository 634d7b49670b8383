package telemetry

import (
	"bufio"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// respServer speaks just enough RESP to record the commands a client sends.
// PING gets +PONG, everything else an integer reply.
type respServer struct {
	ln   net.Listener
	mu   sync.Mutex
	cmds [][]string
}

func newRESPServer(t *testing.T) *respServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &respServer{ln: ln}
	go s.serve()
	t.Cleanup(func() { ln.Close() })

	return s
}

func (s *respServer) addr() string {
	return s.ln.Addr().String()
}

func (s *respServer) commands() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.cmds...)
}

func (s *respServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *respServer) handle(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		args, err := readCommand(r)
		if err != nil || len(args) == 0 {
			return
		}

		s.mu.Lock()
		s.cmds = append(s.cmds, args)
		s.mu.Unlock()

		reply := ":1\r\n"
		if strings.EqualFold(args[0], "ping") {
			reply = "+PONG\r\n"
		}
		if _, err := conn.Write([]byte(reply)); err != nil {
			return
		}
	}
}

func readLength(r *bufio.Reader, prefix byte) (int, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return 0, err
	}
	line = strings.TrimSpace(line)
	if len(line) < 2 || line[0] != prefix {
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.Atoi(line[1:])
}

func readCommand(r *bufio.Reader) ([]string, error) {
	n, err := readLength(r, '*')
	if err != nil {
		return nil, err
	}

	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		size, err := readLength(r, '$')
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}

	return args, nil
}

func TestRedisRepositoryStore(t *testing.T) {
	srv := newRESPServer(t)

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Addr = srv.addr()

	ctx := context.Background()
	repo, err := NewRepository(ctx, cfg, nil)
	require.NoError(t, err)

	update := testUpdate()
	require.NoError(t, repo.Store(ctx, update))
	require.NoError(t, repo.Close())

	cmds := srv.commands()
	require.Len(t, cmds, 3)
	assert.Equal(t, []string{"ping"}, cmds[0])

	hset := cmds[1]
	require.GreaterOrEqual(t, len(hset), 2)
	assert.Equal(t, "hset", hset[0])
	assert.Equal(t, "roverdash", hset[1])
	assert.Len(t, hset, 2+2*len(Fields(update)))

	values := map[string]string{}
	for i := 2; i+1 < len(hset); i += 2 {
		values[hset[i]] = hset[i+1]
	}
	assert.Equal(t, "success", values["result"])
	assert.Equal(t, "1800", values["rpm"])
	assert.Equal(t, "on", values["mil"])

	assert.Equal(t, []string{"publish", "roverdash", "success"}, cmds[2])
}

func TestRedisRepositoryCustomKey(t *testing.T) {
	srv := newRESPServer(t)

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Addr = srv.addr()
	cfg.Key = "dash:14cux"

	ctx := context.Background()
	pub, err := NewService(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, testUpdate()))
	require.NoError(t, pub.Close())

	cmds := srv.commands()
	require.Len(t, cmds, 3)
	assert.Equal(t, "dash:14cux", cmds[1][1])
	assert.Equal(t, []string{"publish", "dash:14cux", "success"}, cmds[2])
}
