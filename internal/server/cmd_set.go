package server

import (
	"github.com/flondb/redisd/internal/resp"
)

func init() {
	register("SADD", -3, cmdSAdd)
	register("SREM", -3, cmdSRem)
	register("SMEMBERS", 2, cmdSMembers)
	register("SISMEMBER", 3, cmdSIsMember)
	register("SCARD", 2, cmdSCard)
	register("SINTER", -2, cmdSInter)
	register("SUNION", -2, cmdSUnion)
	register("SDIFF", -2, cmdSDiff)
}

func cmdSAdd(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n, err := s.server.Store.SAdd(string(cmd[1]), cmd[2:])
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdSRem(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n, err := s.server.Store.SRem(string(cmd[1]), cmd[2:])
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdSMembers(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	members, err := s.server.Store.Members(string(cmd[1]))
	if err != nil {
		return genericErr(err)
	}
	return bulkArray(members)
}

func cmdSIsMember(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	ok, err := s.server.Store.SIsMember(string(cmd[1]), cmd[2])
	if err != nil {
		return genericErr(err)
	}
	if ok {
		return resp.Int(1)
	}
	return resp.Int(0)
}

func cmdSCard(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n, err := s.server.Store.SCard(string(cmd[1]))
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func keysFrom(cmd [][]byte) []string {
	keys := make([]string, 0, len(cmd)-1)
	for _, k := range cmd[1:] {
		keys = append(keys, string(k))
	}
	return keys
}

func cmdSInter(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	out, err := s.server.Store.SInter(keysFrom(cmd))
	if err != nil {
		return genericErr(err)
	}
	return bulkArray(out)
}

func cmdSUnion(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	out, err := s.server.Store.SUnion(keysFrom(cmd))
	if err != nil {
		return genericErr(err)
	}
	return bulkArray(out)
}

func cmdSDiff(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	out, err := s.server.Store.SDiff(keysFrom(cmd))
	if err != nil {
		return genericErr(err)
	}
	return bulkArray(out)
}
