package server

import (
	"fmt"
	"strings"

	"github.com/flondb/redisd/internal/resp"
	"github.com/flondb/redisd/internal/txn"
)

// Handler executes a single command. cmd[0] is the command name as the
// client sent it (only the separate name used for table lookup is
// uppercased); cmd[1:] are its arguments as raw bytes.
type Handler func(s *Session, cmd [][]byte) resp.Reply

// spec describes one command's shape: Arity follows the Redis
// convention -- a positive value is the exact required length of cmd
// (including the command name), a negative value is a minimum.
type spec struct {
	Arity   int
	Handler Handler
}

// commandTable is populated by each cmd_*.go file's init(), one entry
// per command it implements.
var commandTable = map[string]spec{}

func checkArity(want, got int) bool {
	if want >= 0 {
		return got == want
	}
	return got >= -want
}

// subscribeModeAllowed is the command allowlist for connections with at
// least one active channel or pattern subscription.
var subscribeModeAllowed = map[string]bool{
	"SUBSCRIBE": true, "UNSUBSCRIBE": true,
	"PSUBSCRIBE": true, "PUNSUBSCRIBE": true,
	"PING": true, "QUIT": true, "RESET": true,
}

func (s *Session) dispatch(name string, cmd [][]byte) resp.Reply {
	sp, ok := commandTable[name]
	if !ok {
		if s.Txn.InMulti {
			s.Txn.MarkErrored()
		}
		return resp.Err(fmt.Sprintf("ERR unknown command '%s'", string(cmd[0])))
	}
	if !checkArity(sp.Arity, len(cmd)) {
		if s.Txn.InMulti {
			s.Txn.MarkErrored()
		}
		return resp.Err(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
	}

	if s.subscribed && !subscribeModeAllowed[name] {
		return resp.Err(fmt.Sprintf(
			"ERR Can't execute '%s': only (P|S)SUBSCRIBE / (P)UNSUBSCRIBE / PING / QUIT / RESET are allowed in this context",
			strings.ToLower(name)))
	}

	// MULTI/EXEC/DISCARD/WATCH/UNWATCH always run immediately; every
	// other command is queued while a transaction is open.
	switch name {
	case "MULTI":
		return s.cmdMulti(cmd)
	case "EXEC":
		return s.cmdExec(cmd)
	case "DISCARD":
		return s.cmdDiscard(cmd)
	case "WATCH":
		return s.cmdWatch(cmd)
	case "UNWATCH":
		return s.cmdUnwatch(cmd)
	}

	if s.Txn.InMulti {
		s.Txn.Enqueue(txn.Command{Name: name, Args: cmd})
		return resp.Simple("QUEUED")
	}

	return sp.Handler(s, cmd)
}

// execOne runs an already-queued command's handler directly, bypassing
// arity/subscribe-mode checks (already done at queue time) and MULTI
// routing (EXEC is already holding the lock and iterating the queue).
func execOne(s *Session, name string, cmd [][]byte) resp.Reply {
	sp, ok := commandTable[name]
	if !ok {
		return resp.Err(fmt.Sprintf("ERR unknown command '%s'", string(cmd[0])))
	}
	return sp.Handler(s, cmd)
}
