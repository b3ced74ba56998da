package server

import (
	"strings"

	"github.com/flondb/redisd/internal/resp"
)

// The transaction commands are registered for name/arity lookup like
// everything else, but dispatch intercepts them by name before the
// queued-mode routing: they act on Session.Txn and must never be
// queued themselves. The registered handlers delegate to the same
// methods so the table stays the single source of arity truth.
func init() {
	register("MULTI", 1, func(s *Session, cmd [][]byte) resp.Reply { return s.cmdMulti(cmd) })
	register("EXEC", 1, func(s *Session, cmd [][]byte) resp.Reply { return s.cmdExec(cmd) })
	register("DISCARD", 1, func(s *Session, cmd [][]byte) resp.Reply { return s.cmdDiscard(cmd) })
	register("WATCH", -2, func(s *Session, cmd [][]byte) resp.Reply { return s.cmdWatch(cmd) })
	register("UNWATCH", 1, func(s *Session, cmd [][]byte) resp.Reply { return s.cmdUnwatch(cmd) })
}

// cmdMulti starts queued mode.
func (s *Session) cmdMulti(cmd [][]byte) resp.Reply {
	if err := s.Txn.BeginMulti(); err != nil {
		return resp.Err(err.Error())
	}
	return resp.Simple("OK")
}

func (s *Session) cmdDiscard(cmd [][]byte) resp.Reply {
	if !s.Txn.InMulti {
		return resp.Err("ERR DISCARD without MULTI")
	}
	s.Txn.Discard()
	return resp.Simple("OK")
}

func (s *Session) cmdWatch(cmd [][]byte) resp.Reply {
	if s.Txn.InMulti {
		return resp.Err("ERR WATCH inside MULTI is not allowed")
	}
	keys := make([]string, 0, len(cmd)-1)
	for _, k := range cmd[1:] {
		keys = append(keys, string(k))
	}
	defer s.lockStore()()
	s.Txn.Watch(s.server.Store, keys)
	return resp.Simple("OK")
}

func (s *Session) cmdUnwatch(cmd [][]byte) resp.Reply {
	s.Txn.Unwatch()
	return resp.Simple("OK")
}

// cmdExec runs every queued command under a single keyspace lock, so
// the whole block is atomic with respect to every other connection.
// EXEC always clears MULTI/WATCH state on the way out, whichever of
// the three outcomes below it hits.
func (s *Session) cmdExec(cmd [][]byte) resp.Reply {
	if !s.Txn.InMulti {
		return resp.Err("ERR EXEC without MULTI")
	}
	defer s.Txn.EndMulti()

	if s.Txn.Errored {
		return resp.Err("EXECABORT Transaction discarded because of previous errors.")
	}

	s.server.Store.Lock()
	defer s.server.Store.Unlock()

	if s.Txn.Dirty(s.server.Store) {
		return resp.NullArray()
	}

	s.inExec = true
	defer func() { s.inExec = false }()

	results := make([]resp.Reply, len(s.Txn.Queued))
	for i, qc := range s.Txn.Queued {
		name := strings.ToUpper(qc.Name)
		results[i] = execOne(s, name, qc.Args)
	}
	return resp.Array(results)
}
