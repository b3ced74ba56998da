package server

import (
	"strconv"

	"github.com/flondb/redisd/internal/resp"
)

func init() {
	register("JSON.SET", 4, cmdJSONSet)
	register("JSON.GET", -2, cmdJSONGet)
	register("JSON.TYPE", -2, cmdJSONType)
	register("JSON.DEL", -2, cmdJSONDel)
	register("JSON.ARRAPPEND", -4, cmdJSONArrAppend)
	register("JSON.ARRINSERT", -5, cmdJSONArrInsert)
	register("JSON.ARRPOP", -3, cmdJSONArrPop)
	register("JSON.ARRTRIM", 5, cmdJSONArrTrim)
	register("JSON.STRLEN", -2, cmdJSONStrLen)
	register("JSON.NUMINCRBY", 4, cmdJSONNumIncrBy)
}

func jsonPathArg(cmd [][]byte) string {
	if len(cmd) >= 3 {
		return string(cmd[2])
	}
	return "$"
}

func cmdJSONSet(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	if err := s.server.Store.JSONSet(string(cmd[1]), string(cmd[2]), string(cmd[3])); err != nil {
		return genericErr(err)
	}
	return resp.Simple("OK")
}

func cmdJSONGet(s *Session, cmd [][]byte) resp.Reply {
	paths := make([]string, 0, len(cmd)-2)
	for _, p := range cmd[2:] {
		paths = append(paths, string(p))
	}
	defer s.lockStore()()
	out, err := s.server.Store.JSONGet(string(cmd[1]), paths)
	if err != nil {
		return genericErr(err)
	}
	return resp.Bulk(out)
}

func cmdJSONType(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	t, err := s.server.Store.JSONType(string(cmd[1]), jsonPathArg(cmd))
	if err != nil {
		return genericErr(err)
	}
	return resp.Bulk(t)
}

func cmdJSONDel(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n, err := s.server.Store.JSONDel(string(cmd[1]), jsonPathArg(cmd))
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdJSONArrAppend(s *Session, cmd [][]byte) resp.Reply {
	values := make([]string, 0, len(cmd)-3)
	for _, v := range cmd[3:] {
		values = append(values, string(v))
	}
	defer s.lockStore()()
	n, err := s.server.Store.JSONArrAppend(string(cmd[1]), string(cmd[2]), values)
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdJSONArrInsert(s *Session, cmd [][]byte) resp.Reply {
	idx, ok := parseInt(string(cmd[3]))
	if !ok {
		return resp.Err("ERR value is not an integer or out of range")
	}
	values := make([]string, 0, len(cmd)-4)
	for _, v := range cmd[4:] {
		values = append(values, string(v))
	}
	defer s.lockStore()()
	n, err := s.server.Store.JSONArrInsert(string(cmd[1]), string(cmd[2]), int(idx), values)
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdJSONArrPop(s *Session, cmd [][]byte) resp.Reply {
	idx := int64(-1)
	if len(cmd) > 3 {
		var ok bool
		idx, ok = parseInt(string(cmd[3]))
		if !ok {
			return resp.Err("ERR value is not an integer or out of range")
		}
	}
	defer s.lockStore()()
	removed, popped, err := s.server.Store.JSONArrPop(string(cmd[1]), string(cmd[2]), int(idx))
	if err != nil {
		return genericErr(err)
	}
	if !popped {
		return resp.NullBulk()
	}
	return resp.Bulk(removed)
}

func cmdJSONArrTrim(s *Session, cmd [][]byte) resp.Reply {
	start, ok1 := parseInt(string(cmd[3]))
	stop, ok2 := parseInt(string(cmd[4]))
	if !ok1 || !ok2 {
		return resp.Err("ERR value is not an integer or out of range")
	}
	defer s.lockStore()()
	n, err := s.server.Store.JSONArrTrim(string(cmd[1]), string(cmd[2]), int(start), int(stop))
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdJSONStrLen(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n, err := s.server.Store.JSONStrLen(string(cmd[1]), jsonPathArg(cmd))
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdJSONNumIncrBy(s *Session, cmd [][]byte) resp.Reply {
	delta, ok := parseFloat(string(cmd[3]))
	if !ok {
		return resp.Err("ERR value is not a valid float")
	}
	defer s.lockStore()()
	next, err := s.server.Store.JSONNumIncrBy(string(cmd[1]), string(cmd[2]), delta)
	if err != nil {
		return genericErr(err)
	}
	return resp.Bulk(strconv.FormatFloat(next, 'f', -1, 64))
}
