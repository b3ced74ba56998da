package server

import (
	"github.com/flondb/redisd/internal/resp"
)

func init() {
	register("SUBSCRIBE", -2, cmdSubscribe)
	register("UNSUBSCRIBE", -1, cmdUnsubscribe)
	register("PSUBSCRIBE", -2, cmdPSubscribe)
	register("PUNSUBSCRIBE", -1, cmdPUnsubscribe)
	register("PUBLISH", 3, cmdPublish)
}

// subscribeConfirm writes one "subscribe"/"unsubscribe"-style push
// directly to the connection, since SUBSCRIBE with N channels sends N
// separate confirmations rather than a single reply.
func (s *Session) subscribeConfirm(kind, name string, count int) {
	s.writeReply(resp.Push([]resp.Reply{
		resp.Bulk(kind),
		resp.Bulk(name),
		resp.Int(int64(count)),
	}))
}

func cmdSubscribe(s *Session, cmd [][]byte) resp.Reply {
	for _, ch := range cmd[1:] {
		count := s.server.PubSub.Subscribe(string(ch), s)
		s.subscribeConfirm("subscribe", string(ch), count)
	}
	s.subscribed = true
	return resp.Reply{}
}

func cmdUnsubscribe(s *Session, cmd [][]byte) resp.Reply {
	channels := cmd[1:]
	if len(channels) == 0 {
		channels = toByteSlices(s.server.PubSub.Channels(s))
	}
	for _, ch := range channels {
		count := s.server.PubSub.Unsubscribe(string(ch), s)
		s.subscribeConfirm("unsubscribe", string(ch), count)
	}
	s.refreshSubscribed()
	return resp.Reply{}
}

func cmdPSubscribe(s *Session, cmd [][]byte) resp.Reply {
	for _, p := range cmd[1:] {
		count := s.server.PubSub.PSubscribe(string(p), s)
		s.subscribeConfirm("psubscribe", string(p), count)
	}
	s.subscribed = true
	return resp.Reply{}
}

func cmdPUnsubscribe(s *Session, cmd [][]byte) resp.Reply {
	patterns := cmd[1:]
	if len(patterns) == 0 {
		patterns = toByteSlices(s.server.PubSub.Patterns(s))
	}
	for _, p := range patterns {
		count := s.server.PubSub.PUnsubscribe(string(p), s)
		s.subscribeConfirm("punsubscribe", string(p), count)
	}
	s.refreshSubscribed()
	return resp.Reply{}
}

func (s *Session) refreshSubscribed() {
	s.subscribed = len(s.server.PubSub.Channels(s))+len(s.server.PubSub.Patterns(s)) > 0
}

func toByteSlices(items []string) [][]byte {
	out := make([][]byte, len(items))
	for i, it := range items {
		out[i] = []byte(it)
	}
	return out
}

func cmdPublish(s *Session, cmd [][]byte) resp.Reply {
	n := s.server.PubSub.Publish(string(cmd[1]), string(cmd[2]))
	return resp.Int(int64(n))
}
