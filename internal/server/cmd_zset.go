package server

import (
	"strings"

	"github.com/flondb/redisd/internal/resp"
	"github.com/flondb/redisd/internal/store"
)

func init() {
	register("ZADD", -4, cmdZAdd)
	register("ZINCRBY", 4, cmdZIncrBy)
	register("ZSCORE", 3, cmdZScore)
	register("ZREM", -3, cmdZRem)
	register("ZCARD", 2, cmdZCard)
	register("ZRANK", 3, cmdZRank)
	register("ZREVRANK", 3, cmdZRevRank)
	register("ZRANGE", -4, cmdZRange)
	register("ZREVRANGE", -4, cmdZRevRange)
	register("ZRANGEBYSCORE", -4, cmdZRangeByScore)
	register("ZCOUNT", 4, cmdZCount)
	register("ZREMRANGEBYSCORE", 4, cmdZRemRangeByScore)
}

func cmdZAdd(s *Session, cmd [][]byte) resp.Reply {
	if (len(cmd)-2)%2 != 0 {
		return resp.Err("ERR syntax error")
	}
	pairs := make([]store.ZPair, 0, (len(cmd)-2)/2)
	for i := 2; i+1 < len(cmd); i += 2 {
		score, ok := parseFloat(string(cmd[i]))
		if !ok {
			return resp.Err("ERR value is not a valid float")
		}
		pairs = append(pairs, store.ZPair{Member: string(cmd[i+1]), Score: score})
	}
	defer s.lockStore()()
	n, err := s.server.Store.ZAdd(string(cmd[1]), pairs)
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdZIncrBy(s *Session, cmd [][]byte) resp.Reply {
	delta, ok := parseFloat(string(cmd[2]))
	if !ok {
		return resp.Err("ERR value is not a valid float")
	}
	defer s.lockStore()()
	next, err := s.server.Store.ZIncrBy(string(cmd[1]), string(cmd[3]), delta)
	if err != nil {
		return genericErr(err)
	}
	return resp.Bulk(store.FormatScore(next))
}

func cmdZScore(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	score, ok, err := s.server.Store.ZScore(string(cmd[1]), string(cmd[2]))
	if err != nil {
		return genericErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Bulk(store.FormatScore(score))
}

func cmdZRem(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n, err := s.server.Store.ZRem(string(cmd[1]), stringsFrom(cmd[2:]))
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdZCard(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n, err := s.server.Store.ZCard(string(cmd[1]))
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdZRank(s *Session, cmd [][]byte) resp.Reply    { return zrankHelper(s, cmd, false) }
func cmdZRevRank(s *Session, cmd [][]byte) resp.Reply { return zrankHelper(s, cmd, true) }

func zrankHelper(s *Session, cmd [][]byte, rev bool) resp.Reply {
	defer s.lockStore()()
	rank, ok, err := s.server.Store.ZRank(string(cmd[1]), string(cmd[2]), rev)
	if err != nil {
		return genericErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Int(int64(rank))
}

func cmdZRange(s *Session, cmd [][]byte) resp.Reply    { return zrangeHelper(s, cmd, false) }
func cmdZRevRange(s *Session, cmd [][]byte) resp.Reply { return zrangeHelper(s, cmd, true) }

func zrangeHelper(s *Session, cmd [][]byte, rev bool) resp.Reply {
	start, ok1 := parseInt(string(cmd[2]))
	stop, ok2 := parseInt(string(cmd[3]))
	if !ok1 || !ok2 {
		return resp.Err("ERR value is not an integer or out of range")
	}
	withScores := len(cmd) > 4 && strings.EqualFold(string(cmd[4]), "WITHSCORES")
	defer s.lockStore()()
	pairs, err := s.server.Store.ZRange(string(cmd[1]), int(start), int(stop), rev)
	if err != nil {
		return genericErr(err)
	}
	return zpairsReply(pairs, withScores)
}

func cmdZRangeByScore(s *Session, cmd [][]byte) resp.Reply {
	min, err1 := store.ParseScoreBound(string(cmd[2]))
	max, err2 := store.ParseScoreBound(string(cmd[3]))
	if err1 != nil || err2 != nil {
		return resp.Err("ERR min or max is not a float")
	}
	withScores := len(cmd) > 4 && strings.EqualFold(string(cmd[4]), "WITHSCORES")
	defer s.lockStore()()
	pairs, err := s.server.Store.ZRangeByScore(string(cmd[1]), min, max)
	if err != nil {
		return genericErr(err)
	}
	return zpairsReply(pairs, withScores)
}

func cmdZCount(s *Session, cmd [][]byte) resp.Reply {
	min, err1 := store.ParseScoreBound(string(cmd[2]))
	max, err2 := store.ParseScoreBound(string(cmd[3]))
	if err1 != nil || err2 != nil {
		return resp.Err("ERR min or max is not a float")
	}
	defer s.lockStore()()
	n, err := s.server.Store.ZCount(string(cmd[1]), min, max)
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdZRemRangeByScore(s *Session, cmd [][]byte) resp.Reply {
	min, err1 := store.ParseScoreBound(string(cmd[2]))
	max, err2 := store.ParseScoreBound(string(cmd[3]))
	if err1 != nil || err2 != nil {
		return resp.Err("ERR min or max is not a float")
	}
	defer s.lockStore()()
	n, err := s.server.Store.ZRemRangeByScore(string(cmd[1]), min, max)
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func zpairsReply(pairs []store.ZPair, withScores bool) resp.Reply {
	items := make([]resp.Reply, 0, len(pairs)*2)
	for _, p := range pairs {
		items = append(items, resp.Bulk(p.Member))
		if withScores {
			items = append(items, resp.Bulk(store.FormatScore(p.Score)))
		}
	}
	return resp.Array(items)
}

func stringsFrom(items [][]byte) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = string(it)
	}
	return out
}
