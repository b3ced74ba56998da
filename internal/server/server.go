// Package server wires the codec, dispatcher, and session state around
// the data engine (internal/store, internal/streams, internal/pubsub,
// internal/txn). It owns the TCP accept loop and per-connection
// goroutines; the spec.md scope calls this glue "external", but
// something has to drive the engine end to end, so it is built here in
// the teacher's plain net.Listener + goroutine-per-connection style.
package server

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/flondb/redisd/internal/clock"
	"github.com/flondb/redisd/internal/pubsub"
	"github.com/flondb/redisd/internal/store"
	"github.com/flondb/redisd/internal/streams"
)

const sweepInterval = 100 * time.Millisecond
const sweepSample = 20

// Server owns the shared, cross-connection state: the keyspace, the
// stream wait-queue notifier, and the pub/sub registry.
type Server struct {
	Addr string

	Store    *store.Keyspace
	Notifier *streams.Notifier
	PubSub   *pubsub.Registry
	Clock    clock.Clock

	listener net.Listener
	quitch   chan os.Signal
	wg       sync.WaitGroup
	logger   *log.Logger

	stopSweep chan struct{}
}

func New(addr string) *Server {
	c := clock.System{}
	return &Server{
		Addr:      addr,
		Store:     store.New(c),
		Notifier:  streams.NewNotifier(),
		PubSub:    pubsub.New(),
		Clock:     c,
		quitch:    make(chan os.Signal, 1),
		logger:    log.New(os.Stderr, "redisd ", log.LstdFlags),
		stopSweep: make(chan struct{}),
	}
}

// Start binds the listener and blocks until SIGINT/SIGTERM, then waits
// for in-flight connections to finish.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.Addr, err)
	}
	s.listener = ln
	defer ln.Close()

	go s.sweepLoop()
	go s.serve()

	signal.Notify(s.quitch, syscall.SIGINT, syscall.SIGTERM)
	<-s.quitch
	s.logger.Println("shutting down...")
	close(s.stopSweep)
	s.wg.Wait()
	s.logger.Println("shutdown complete")
	return nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.logger.Println("accept error:", err)
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	sess := newSession(s, conn)
	sess.run()
}

// sweepLoop is the periodic active-expiry sweep CLEANUP performs
// automatically in the background; the CLEANUP command triggers the
// same Sweep call on demand, e.g. for deterministic tests.
func (s *Server) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Store.Lock()
			s.Store.Sweep(sweepSample)
			s.Store.Unlock()
		case <-s.stopSweep:
			return
		}
	}
}
