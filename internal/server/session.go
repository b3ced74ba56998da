package server

import (
	"bufio"
	"log"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/flondb/redisd/internal/resp"
	"github.com/flondb/redisd/internal/txn"
)

// Session is per-connection state: the transaction context and the set
// of pub/sub subscriptions (tracked by the registry, keyed by
// Session.ID()). No selected database is tracked: only database 0
// exists, and SELECT 0 is accepted for client compatibility.
type Session struct {
	id     string
	server *Server
	conn   net.Conn
	logger *log.Logger

	Txn *txn.State

	writeMu sync.Mutex

	subscribed bool // true once at least one SUBSCRIBE/PSUBSCRIBE is active
	quit       bool
	name       string // set via CLIENT SETNAME

	// inExec is set while EXEC is running its queued commands: the
	// keyspace lock is already held for the whole block, so individual
	// handlers must not lock it again.
	inExec bool
}

// lockStore acquires the keyspace lock for the duration of one command,
// unless a transaction's EXEC has already acquired it for the whole
// block. Every handler that touches s.server.Store starts with
// `defer s.lockStore()()`.
func (s *Session) lockStore() func() {
	if s.inExec {
		return func() {}
	}
	s.server.Store.Lock()
	return s.server.Store.Unlock
}

func newSession(s *Server, conn net.Conn) *Session {
	return &Session{
		id:     uuid.NewString(),
		server: s,
		conn:   conn,
		logger: log.New(os.Stderr, conn.RemoteAddr().String()+" ", log.LstdFlags),
		Txn:    txn.New(),
	}
}

func (s *Session) ID() string { return s.id }

// Deliver implements pubsub.Subscriber: it encodes and writes a push
// message straight to the connection. Called from whichever goroutine
// is running the PUBLISHing connection's command, so writes are
// serialized through writeMu.
func (s *Session) Deliver(kind string, args []string) {
	items := make([]resp.Reply, 0, len(args)+1)
	items = append(items, resp.Bulk(kind))
	for _, a := range args {
		items = append(items, resp.Bulk(a))
	}
	s.writeReply(resp.Push(items))
}

func (s *Session) writeReply(r resp.Reply) {
	enc := resp.Encoder{}
	enc.WriteReply(r)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.Write(enc.Buf)
}

func (s *Session) run() {
	defer s.cleanup()

	reader := bufio.NewReader(s.conn)
	for !s.quit {
		cmd, err := resp.ReadCommand(reader)
		if err != nil {
			if resp.IsProtocolError(err) {
				s.writeReply(resp.Err("ERR Protocol error: " + err.Error()))
			}
			return
		}
		if len(cmd) == 0 {
			continue
		}

		name := strings.ToUpper(string(cmd[0]))
		reply := s.dispatch(name, cmd)
		s.writeReply(reply)
	}
}

func (s *Session) cleanup() {
	s.server.PubSub.RemoveAll(s)
	// An in-flight MULTI is simply discarded along with the rest of the
	// session state; nothing was applied to the keyspace yet.
	s.Txn.EndMulti()
}
