// Package wire is the TCP line-oriented editor protocol server of spec
// §6: bencoded request/response dictionaries, one session per
// connection by default, answering every message with one or more
// response dicts and a final status list containing "done". Grounded on
// the teacher's sim/*.go fetch-decode-execute loop for the overall
// "read one message, dispatch, respond" shape, generalized from a single
// in-process simulator to a network service.
package wire

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/zeebo/bencode"
	"go.uber.org/zap"

	"github.com/dangercoder/cljr/internal/config"
	"github.com/dangercoder/cljr/internal/hostcompile"
	"github.com/dangercoder/cljr/internal/repl"
)

// Version is the wire protocol version reported by the describe op.
const Version = "0.1.0"

// Server accepts connections and dispatches bencoded request
// dictionaries to REPL sessions (spec §6).
type Server struct {
	ln       net.Listener
	cfg      *config.Session
	compiler func() hostcompile.Compiler
	log      *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[string]*repl.Session
}

// NewServer builds a Server listening on cfg.Port (0 = ephemeral port,
// spec §6 config table). newCompiler is called once per new session (each
// connection's default session and each clone) to build that session's
// host-compiler boundary.
func NewServer(cfg *config.Session, newCompiler func() hostcompile.Compiler, log *zap.SugaredLogger) (*Server, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	addr := ":0"
	if cfg.Port != 0 {
		addr = fmt.Sprintf(":%d", cfg.Port)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		ln:       ln,
		cfg:      cfg,
		compiler: newCompiler,
		log:      log,
		sessions: make(map[string]*repl.Session),
	}, nil
}

// Addr returns the server's actual listen address (useful when Port was
// 0 and the OS picked an ephemeral one).
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Serve accepts connections until the listener is closed.
func (s *Server) Serve(ctx context.Context) error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(ctx, conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error { return s.ln.Close() }

// newSession builds and registers a fresh session (the "clone" op's
// mechanism, also used to seed the default per-connection session, spec
// §5 "the wire server creates one session per connection by default").
func (s *Server) newSession() *repl.Session {
	sess := repl.New(s.cfg, s.compiler(), s.log)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *Server) sessionByID(id string) (*repl.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) closeSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) listSessionIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	return out
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defaultSession := s.newSession()

	dec := bencode.NewDecoder(conn)
	enc := bencode.NewEncoder(conn)
	for {
		var req map[string]any
		if err := dec.Decode(&req); err != nil {
			return
		}
		s.dispatch(ctx, enc, defaultSession, req)
	}
}
