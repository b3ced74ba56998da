package server

import (
	"strings"

	"github.com/flondb/redisd/internal/pubsub"
	"github.com/flondb/redisd/internal/resp"
	"github.com/flondb/redisd/internal/store"
)

func init() {
	register("PING", -1, cmdPing)
	register("ECHO", 2, cmdEcho)
	register("DEL", -2, cmdDel)
	register("EXISTS", -2, cmdExists)
	register("TYPE", 2, cmdType)
	register("KEYS", 2, cmdKeys)
	register("EXPIRE", 3, cmdExpire)
	register("PEXPIRE", 3, cmdPExpire)
	register("TTL", 2, cmdTTL)
	register("PTTL", 2, cmdPTTL)
	register("PERSIST", 2, cmdPersist)
	register("RENAME", 3, cmdRename)
	register("RENAMENX", 3, cmdRenameNX)
	register("DBSIZE", 1, cmdDBSize)
	register("FLUSHDB", -1, cmdFlush)
	register("FLUSHALL", -1, cmdFlush)
	register("OBJECT", -2, cmdObject)
	register("CLIENT", -2, cmdClient)
	register("COMMAND", -1, cmdCommand)
	register("CONFIG", -2, cmdConfig)
	register("INFO", -1, cmdInfo)
	register("SELECT", 2, cmdSelect)
	register("READONLY", 1, cmdOK)
	register("READWRITE", 1, cmdOK)
	register("CLEANUP", 1, cmdCleanup)
	register("QUIT", 1, cmdQuit)
	register("RESET", 1, cmdReset)
}

func cmdPing(s *Session, cmd [][]byte) resp.Reply {
	if len(cmd) == 2 {
		return resp.BulkBytes(cmd[1])
	}
	return resp.Simple("PONG")
}

func cmdEcho(s *Session, cmd [][]byte) resp.Reply {
	return resp.BulkBytes(cmd[1])
}

func cmdDel(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n := 0
	for _, k := range cmd[1:] {
		if s.server.Store.Delete(string(k)) {
			n++
		}
	}
	return resp.Int(int64(n))
}

func cmdExists(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n := 0
	for _, k := range cmd[1:] {
		if s.server.Store.Exists(string(k)) {
			n++
		}
	}
	return resp.Int(int64(n))
}

func cmdType(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	v, ok := s.server.Store.Get(string(cmd[1]))
	if !ok {
		return resp.Simple("none")
	}
	return resp.Simple(v.Kind.String())
}

func cmdKeys(s *Session, cmd [][]byte) resp.Reply {
	pattern := string(cmd[1])
	defer s.lockStore()()
	keys := s.server.Store.Keys(func(k string) bool {
		if pattern == "*" || pattern == "" {
			return true
		}
		return pubsub.Match(pattern, k)
	})
	return stringArray(keys)
}

func cmdExpire(s *Session, cmd [][]byte) resp.Reply { return expireHelper(s, cmd, 1000) }
func cmdPExpire(s *Session, cmd [][]byte) resp.Reply { return expireHelper(s, cmd, 1) }

func expireHelper(s *Session, cmd [][]byte, unitMs int64) resp.Reply {
	n, ok := parseInt(string(cmd[2]))
	if !ok {
		return resp.Err("ERR value is not an integer or out of range")
	}
	defer s.lockStore()()
	at := s.server.Clock.NowMs() + n*unitMs
	if s.server.Store.SetExpireAt(string(cmd[1]), at) {
		return resp.Int(1)
	}
	return resp.Int(0)
}

func cmdTTL(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	ms := s.server.Store.TTLMs(string(cmd[1]))
	if ms < 0 {
		return resp.Int(ms)
	}
	return resp.Int((ms + 999) / 1000)
}

func cmdPTTL(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	return resp.Int(s.server.Store.TTLMs(string(cmd[1])))
}

func cmdPersist(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	if s.server.Store.Persist(string(cmd[1])) {
		return resp.Int(1)
	}
	return resp.Int(0)
}

func cmdRename(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	if !s.server.Store.Rename(string(cmd[1]), string(cmd[2])) {
		return resp.Err("ERR no such key")
	}
	return resp.Simple("OK")
}

func cmdRenameNX(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	if s.server.Store.Exists(string(cmd[2])) {
		return resp.Int(0)
	}
	if !s.server.Store.Rename(string(cmd[1]), string(cmd[2])) {
		return resp.Err("ERR no such key")
	}
	return resp.Int(1)
}

func cmdDBSize(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	return resp.Int(int64(s.server.Store.Size()))
}

func cmdFlush(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	s.server.Store.Flush()
	return resp.Simple("OK")
}

func cmdObject(s *Session, cmd [][]byte) resp.Reply {
	if !strings.EqualFold(string(cmd[1]), "ENCODING") || len(cmd) < 3 {
		return resp.Err("ERR syntax error")
	}
	defer s.lockStore()()
	v, ok := s.server.Store.Get(string(cmd[2]))
	if !ok {
		return resp.NullBulk()
	}
	return resp.Bulk(encodingFor(v.Kind))
}

func encodingFor(k store.Kind) string {
	switch k {
	case store.KindString:
		return "raw"
	case store.KindHash:
		return "hashtable"
	case store.KindList:
		return "linkedlist"
	case store.KindSet:
		return "hashtable"
	case store.KindZSet:
		return "skiplist"
	case store.KindStream:
		return "stream"
	case store.KindJSON:
		return "raw"
	case store.KindVector:
		return "vectorset"
	}
	return "raw"
}

func cmdClient(s *Session, cmd [][]byte) resp.Reply {
	sub := strings.ToUpper(string(cmd[1]))
	switch sub {
	case "ID":
		return resp.Bulk(s.ID())
	case "GETNAME":
		return resp.Bulk(s.name)
	case "SETNAME":
		if len(cmd) < 3 {
			return resp.Err("ERR wrong number of arguments")
		}
		s.name = string(cmd[2])
		return resp.Simple("OK")
	case "SETINFO":
		return resp.Simple("OK")
	case "NO-EVICT", "NO-TOUCH":
		return resp.Simple("OK")
	}
	return resp.Simple("OK")
}

func cmdCommand(s *Session, cmd [][]byte) resp.Reply {
	if len(cmd) >= 2 && strings.EqualFold(string(cmd[1]), "COUNT") {
		return resp.Int(int64(len(commandTable)))
	}
	return resp.Array(nil)
}

func cmdConfig(s *Session, cmd [][]byte) resp.Reply {
	if strings.EqualFold(string(cmd[1]), "GET") {
		return resp.Array(nil)
	}
	return resp.Simple("OK")
}

func cmdInfo(s *Session, cmd [][]byte) resp.Reply {
	body := "redis_version:7.4.0-compat\r\nredis_mode:standalone\r\n"
	return resp.Bulk(body)
}

func cmdOK(s *Session, cmd [][]byte) resp.Reply {
	return resp.Simple("OK")
}

func cmdSelect(s *Session, cmd [][]byte) resp.Reply {
	n, ok := parseInt(string(cmd[1]))
	if !ok || n != 0 {
		return resp.Err("ERR DB index is out of range")
	}
	return resp.Simple("OK")
}

func cmdCleanup(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n := s.server.Store.Sweep(1 << 30)
	return resp.Int(int64(n))
}

func cmdQuit(s *Session, cmd [][]byte) resp.Reply {
	s.quit = true
	return resp.Simple("OK")
}

func cmdReset(s *Session, cmd [][]byte) resp.Reply {
	s.server.PubSub.RemoveAll(s)
	s.subscribed = false
	s.Txn.EndMulti()
	return resp.Simple("RESET")
}
