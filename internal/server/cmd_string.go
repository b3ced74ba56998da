package server

import (
	"math"
	"strings"

	"github.com/flondb/redisd/internal/resp"
	"github.com/flondb/redisd/internal/store"
)

func init() {
	register("GET", 2, cmdGet)
	register("SET", -3, cmdSet)
	register("SETNX", 3, cmdSetNX)
	register("GETDEL", 2, cmdGetDel)
	register("STRLEN", 2, cmdStrLen)
	register("INCR", 2, cmdIncr)
	register("DECR", 2, cmdDecr)
	register("INCRBY", 3, cmdIncrBy)
	register("DECRBY", 3, cmdDecrBy)
}

func cmdGet(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	val, ok, err := s.server.Store.GetString(string(cmd[1]))
	if err != nil {
		return genericErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkBytes(val)
}

// cmdSet implements SET key value [EX seconds | PX ms] [NX | XX].
func cmdSet(s *Session, cmd [][]byte) resp.Reply {
	opts := store.SetOpts{}
	for i := 3; i < len(cmd); i++ {
		tok := strings.ToUpper(string(cmd[i]))
		switch tok {
		case "NX":
			opts.NX = true
		case "XX":
			opts.XX = true
		case "EX", "PX":
			if i+1 >= len(cmd) {
				return resp.Err("ERR syntax error")
			}
			n, ok := parseInt(string(cmd[i+1]))
			if !ok {
				return resp.Err("ERR value is not an integer or out of range")
			}
			opts.HasExpireMs = true
			i++
			if tok == "EX" {
				n *= 1000
			}
			opts.ExpireAtMs = n // resolved to absolute below
		default:
			return resp.Err("ERR syntax error")
		}
	}

	defer s.lockStore()()
	if opts.HasExpireMs {
		opts.ExpireAtMs += s.server.Clock.NowMs()
	}
	ok, err := s.server.Store.SetString(string(cmd[1]), cmd[2], opts)
	if err != nil {
		return genericErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Simple("OK")
}

func cmdSetNX(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	ok, err := s.server.Store.SetString(string(cmd[1]), cmd[2], store.SetOpts{NX: true})
	if err != nil {
		return genericErr(err)
	}
	if ok {
		return resp.Int(1)
	}
	return resp.Int(0)
}

func cmdGetDel(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	key := string(cmd[1])
	val, ok, err := s.server.Store.GetString(key)
	if err != nil {
		return genericErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	s.server.Store.Delete(key)
	return resp.BulkBytes(val)
}

func cmdStrLen(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	val, ok, err := s.server.Store.GetString(string(cmd[1]))
	if err != nil {
		return genericErr(err)
	}
	if !ok {
		return resp.Int(0)
	}
	return resp.Int(int64(len(val)))
}

func cmdIncr(s *Session, cmd [][]byte) resp.Reply {
	return incrByHelper(s, string(cmd[1]), 1)
}

func cmdDecr(s *Session, cmd [][]byte) resp.Reply {
	return incrByHelper(s, string(cmd[1]), -1)
}

func cmdIncrBy(s *Session, cmd [][]byte) resp.Reply {
	n, ok := parseInt(string(cmd[2]))
	if !ok {
		return resp.Err("ERR value is not an integer or out of range")
	}
	return incrByHelper(s, string(cmd[1]), n)
}

func cmdDecrBy(s *Session, cmd [][]byte) resp.Reply {
	n, ok := parseInt(string(cmd[2]))
	// -MinInt64 wraps back to MinInt64, so it can't be negated into a
	// valid increment.
	if !ok || n == math.MinInt64 {
		return resp.Err("ERR value is not an integer or out of range")
	}
	return incrByHelper(s, string(cmd[1]), -n)
}

func incrByHelper(s *Session, key string, delta int64) resp.Reply {
	defer s.lockStore()()
	next, err := s.server.Store.IncrBy(key, delta)
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(next)
}
