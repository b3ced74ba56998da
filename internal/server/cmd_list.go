package server

import (
	"github.com/flondb/redisd/internal/resp"
)

func init() {
	register("LPUSH", -3, cmdLPush)
	register("RPUSH", -3, cmdRPush)
	register("LPOP", 2, cmdLPop)
	register("RPOP", 2, cmdRPop)
	register("LRANGE", 4, cmdLRange)
	register("LINDEX", 3, cmdLIndex)
	register("LSET", 4, cmdLSet)
	register("LTRIM", 4, cmdLTrim)
	register("LLEN", 2, cmdLLen)
	register("LPOS", 3, cmdLPos)
	register("RPOPLPUSH", 3, cmdRPopLPush)
}

func cmdLPush(s *Session, cmd [][]byte) resp.Reply { return pushHelper(s, cmd, true) }
func cmdRPush(s *Session, cmd [][]byte) resp.Reply { return pushHelper(s, cmd, false) }

func pushHelper(s *Session, cmd [][]byte, left bool) resp.Reply {
	defer s.lockStore()()
	n, err := s.server.Store.Push(string(cmd[1]), cmd[2:], left)
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdLPop(s *Session, cmd [][]byte) resp.Reply { return popHelper(s, cmd, true) }
func cmdRPop(s *Session, cmd [][]byte) resp.Reply { return popHelper(s, cmd, false) }

func popHelper(s *Session, cmd [][]byte, left bool) resp.Reply {
	defer s.lockStore()()
	val, ok, err := s.server.Store.Pop(string(cmd[1]), left)
	if err != nil {
		return genericErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkBytes(val)
}

func cmdLRange(s *Session, cmd [][]byte) resp.Reply {
	start, ok1 := parseInt(string(cmd[2]))
	stop, ok2 := parseInt(string(cmd[3]))
	if !ok1 || !ok2 {
		return resp.Err("ERR value is not an integer or out of range")
	}
	defer s.lockStore()()
	items, err := s.server.Store.Range(string(cmd[1]), int(start), int(stop))
	if err != nil {
		return genericErr(err)
	}
	return bulkArray(items)
}

func cmdLIndex(s *Session, cmd [][]byte) resp.Reply {
	idx, ok := parseInt(string(cmd[2]))
	if !ok {
		return resp.Err("ERR value is not an integer or out of range")
	}
	defer s.lockStore()()
	val, found, err := s.server.Store.Index(string(cmd[1]), int(idx))
	if err != nil {
		return genericErr(err)
	}
	if !found {
		return resp.NullBulk()
	}
	return resp.BulkBytes(val)
}

func cmdLSet(s *Session, cmd [][]byte) resp.Reply {
	idx, ok := parseInt(string(cmd[2]))
	if !ok {
		return resp.Err("ERR value is not an integer or out of range")
	}
	defer s.lockStore()()
	if err := s.server.Store.SetIndex(string(cmd[1]), int(idx), cmd[3]); err != nil {
		return genericErr(err)
	}
	return resp.Simple("OK")
}

func cmdLTrim(s *Session, cmd [][]byte) resp.Reply {
	start, ok1 := parseInt(string(cmd[2]))
	stop, ok2 := parseInt(string(cmd[3]))
	if !ok1 || !ok2 {
		return resp.Err("ERR value is not an integer or out of range")
	}
	defer s.lockStore()()
	if err := s.server.Store.Trim(string(cmd[1]), int(start), int(stop)); err != nil {
		return genericErr(err)
	}
	return resp.Simple("OK")
}

func cmdLLen(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n, err := s.server.Store.Len(string(cmd[1]))
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdLPos(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	idx, found, err := s.server.Store.Pos(string(cmd[1]), cmd[2])
	if err != nil {
		return genericErr(err)
	}
	if !found {
		return resp.NullBulk()
	}
	return resp.Int(int64(idx))
}

func cmdRPopLPush(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	val, ok, err := s.server.Store.RPopLPush(string(cmd[1]), string(cmd[2]))
	if err != nil {
		return genericErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkBytes(val)
}
