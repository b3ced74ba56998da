package server

import (
	"strconv"
	"strings"

	"github.com/flondb/redisd/internal/resp"
	"github.com/flondb/redisd/internal/vecmath"
)

func init() {
	register("VSET", -4, cmdVSet)
	register("VDEL", 3, cmdVDel)
	register("VCARD", 2, cmdVCard)
	register("VDIM", 2, cmdVDim)
	register("VSIM", -5, cmdVSim)
	register("VSEARCH", -5, cmdVSim)
}

func parseVector(fields [][]byte) ([]float64, bool) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(string(f), 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// cmdVSet implements VSET key element VALUES n v1 v2 ... vn.
func cmdVSet(s *Session, cmd [][]byte) resp.Reply {
	if !strings.EqualFold(string(cmd[3]), "VALUES") || len(cmd) < 6 {
		return resp.Err("ERR syntax error")
	}
	n, ok := parseInt(string(cmd[4]))
	if !ok || int(n) != len(cmd)-5 {
		return resp.Err("ERR syntax error")
	}
	vec, ok := parseVector(cmd[5:])
	if !ok {
		return resp.Err("ERR value is not a valid float")
	}
	defer s.lockStore()()
	if err := s.server.Store.VSet(string(cmd[1]), string(cmd[2]), vec); err != nil {
		return genericErr(err)
	}
	return resp.Simple("OK")
}

func cmdVDel(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	ok, err := s.server.Store.VDel(string(cmd[1]), string(cmd[2]))
	if err != nil {
		return genericErr(err)
	}
	if ok {
		return resp.Int(1)
	}
	return resp.Int(0)
}

func cmdVCard(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	n, err := s.server.Store.VCard(string(cmd[1]))
	if err != nil {
		return genericErr(err)
	}
	return resp.Int(int64(n))
}

func cmdVDim(s *Session, cmd [][]byte) resp.Reply {
	defer s.lockStore()()
	dim, ok, err := s.server.Store.VDim(string(cmd[1]))
	if err != nil {
		return genericErr(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.Int(int64(dim))
}

// cmdVSim implements VSIM/VSEARCH key metric VALUES n v1 ... vn
// [WITHSCORES] [COUNT|LIMIT k] [OFFSET o].
func cmdVSim(s *Session, cmd [][]byte) resp.Reply {
	metric, ok := vecmath.ParseMetric(strings.ToUpper(string(cmd[2])))
	if !ok {
		return resp.Err("ERR unsupported metric")
	}
	if !strings.EqualFold(string(cmd[3]), "VALUES") {
		return resp.Err("ERR syntax error")
	}
	n, ok := parseInt(string(cmd[4]))
	if !ok {
		return resp.Err("ERR syntax error")
	}
	end := 5 + int(n)
	if end > len(cmd) {
		return resp.Err("ERR syntax error")
	}
	query, ok := parseVector(cmd[5:end])
	if !ok {
		return resp.Err("ERR value is not a valid float")
	}

	withScores := false
	limit := 0
	offset := 0
	for i := end; i < len(cmd); i++ {
		switch strings.ToUpper(string(cmd[i])) {
		case "WITHSCORES":
			withScores = true
		case "COUNT", "LIMIT":
			if i+1 >= len(cmd) {
				return resp.Err("ERR syntax error")
			}
			c, ok := parseInt(string(cmd[i+1]))
			if !ok {
				return resp.Err("ERR syntax error")
			}
			limit = int(c)
			i++
		case "OFFSET":
			if i+1 >= len(cmd) {
				return resp.Err("ERR syntax error")
			}
			o, ok := parseInt(string(cmd[i+1]))
			if !ok {
				return resp.Err("ERR syntax error")
			}
			offset = int(o)
			i++
		default:
			return resp.Err("ERR syntax error")
		}
	}

	defer s.lockStore()()
	results, err := s.server.Store.VSim(string(cmd[1]), query, metric, offset, limit)
	if err != nil {
		return genericErr(err)
	}
	items := make([]resp.Reply, 0, len(results)*2)
	for _, r := range results {
		items = append(items, resp.Bulk(r.Element))
		if withScores {
			items = append(items, resp.Bulk(strconv.FormatFloat(r.Score, 'f', -1, 64)))
		}
	}
	return resp.Array(items)
}
