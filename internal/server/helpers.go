package server

import (
	"strconv"
	"strings"

	"github.com/flondb/redisd/internal/resp"
)

func register(name string, arity int, h Handler) {
	commandTable[name] = spec{Arity: arity, Handler: h}
}

func parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func bulkArray(items [][]byte) resp.Reply {
	r := make([]resp.Reply, len(items))
	for i, it := range items {
		r[i] = resp.BulkBytes(it)
	}
	return resp.Array(r)
}

func stringArray(items []string) resp.Reply {
	r := make([]resp.Reply, len(items))
	for i, it := range items {
		r[i] = resp.Bulk(it)
	}
	return resp.Array(r)
}

func errWrongType() resp.Reply {
	return resp.Err("WRONGTYPE Operation against a key holding the wrong kind of value")
}

func genericErr(err error) resp.Reply {
	msg := err.Error()
	// Every store/streams/jsondoc sentinel error already carries a Redis
	// style "CODE message" prefix, so it round-trips straight into a RESP
	// error reply without re-wrapping.
	if !strings.Contains(msg, " ") || strings.ToUpper(strings.Fields(msg)[0]) != strings.Fields(msg)[0] {
		return resp.Err("ERR " + msg)
	}
	return resp.Err(msg)
}

func argErr(name string) resp.Reply {
	return resp.Err("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
}
