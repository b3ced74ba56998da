package server

import (
	"github.com/flondb/redisd/internal/resp"
)

func init() {
	register("HSET", -4, cmdHSet)
	register("HSETNX", 4, cmdHSetNX)
	register("HGET", 3, cmdHGet)
	register("HMGET", -3, cmdHMGet)
	register("HDEL", -3, cmdHDel)
	register("HGETALL", 2, cmdHGetAll)
	register("HLEN", 2, cmdHLen)
	register("HEXISTS", 3, cmdHExists)
	register("HKEYS", 2, cmdHKeys)
	register("HVALS", 2, cmdHVals)
}

func cmdHSet(s *Session, cmd [][]byte) resp.Reply {
	if (len(cmd)-2)%2 != 0 {
		return argErr("HSET")
	}
	fields := make([][2][]byte, 0, (len(cmd)-2)/2)
	for i := 2; i+1 < len(cmd); i += 2 {
		fields = append(fields, [2][]byte{cmd[i], cmd[i+1]})
	}
	defer s.lockStore()()
	created, err := s.server.Store.HSet(string(cmd[1]), fields)
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(created))
}

func cmdHSetNX(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	ok, err := s.server.Store.HSetNX(string(cmd[1]), string(cmd[2]), cmd[3])
	if err != nil {
		return genericErr(err)
	}
	if ok {
		return resp.Int(1)
	}
	return resp.Int(0)
}

func cmdHGet(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	val, ok, err := s.server.Store.HGet(string(cmd[1]), string(cmd[2]))
	if err != nil {
		return genericErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkBytes(val)
}

func cmdHMGet(s *Session, cmd [][]byte) resp.Reply {
	fields := make([]string, 0, len(cmd)-2)
	for _, f := range cmd[2:] {
		fields = append(fields, string(f))
	}
	defer s.lockStore()()
	vals, found, err := s.server.Store.HMGet(string(cmd[1]), fields)
	if err != nil {
		return genericErr(err)
	}
	items := make([]resp.Reply, len(vals))
	for i, v := range vals {
		if found[i] {
			items[i] = resp.BulkBytes(v)
		} else {
			items[i] = resp.NullBulk()
		}
	}
	return resp.Array(items)
}

func cmdHDel(s *Session, cmd [][]byte) resp.Reply {
	fields := make([]string, 0, len(cmd)-2)
	for _, f := range cmd[2:] {
		fields = append(fields, string(f))
	}
	defer s.lockStore()()
	n, err := s.server.Store.HDel(string(cmd[1]), fields)
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdHGetAll(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	pairs, err := s.server.Store.HGetAll(string(cmd[1]))
	if err != nil {
		return genericErr(err)
	}
	items := make([]resp.Reply, 0, len(pairs)*2)
	for _, p := range pairs {
		items = append(items, resp.BulkBytes(p[0]), resp.BulkBytes(p[1]))
	}
	return resp.Array(items)
}

func cmdHLen(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n, err := s.server.Store.HLen(string(cmd[1]))
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdHExists(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	ok, err := s.server.Store.HExists(string(cmd[1]), string(cmd[2]))
	if err != nil {
		return genericErr(err)
	}
	if ok {
		return resp.Int(1)
	}
	return resp.Int(0)
}

func cmdHKeys(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	keys, err := s.server.Store.HKeys(string(cmd[1]))
	if err != nil {
		return genericErr(err)
	}
	return stringArray(keys)
}

func cmdHVals(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	vals, err := s.server.Store.HVals(string(cmd[1]))
	if err != nil {
		return genericErr(err)
	}
	return bulkArray(vals)
}
