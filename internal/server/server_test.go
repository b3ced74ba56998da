package server

import (
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flondb/redisd/internal/clock"
	"github.com/flondb/redisd/internal/pubsub"
	"github.com/flondb/redisd/internal/resp"
	"github.com/flondb/redisd/internal/store"
	"github.com/flondb/redisd/internal/streams"
)

// newTestServer builds a Server around a fake clock, without binding a
// real listener -- dispatch() only ever touches Store/Notifier/PubSub/Clock.
func newTestServer(c clock.Clock) *Server {
	return &Server{
		Store:    store.New(c),
		Notifier: streams.NewNotifier(),
		PubSub:   pubsub.New(),
		Clock:    c,
	}
}

// newTestSession gives a session a throwaway net.Conn/peer pair: plain
// command dispatch never writes to the connection directly (only the
// SUBSCRIBE/PSUBSCRIBE family does, via writeReply), so most tests never
// touch peer. Tests that do exercise SUBSCRIBE must drain it (see
// drainPeer) or writeReply's conn.Write blocks forever on the
// unbuffered net.Pipe.
func newTestSession(t *testing.T, srv *Server) (*Session, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return newSession(srv, a), b
}

// drainPeer discards everything written to peer in the background, so a
// session under test can push unsolicited replies (SUBSCRIBE
// confirmations, pub/sub deliveries) without blocking on the pipe.
func drainPeer(peer net.Conn) {
	go io.Copy(io.Discard, peer)
}

func c(args ...string) [][]byte {
	out := make([][]byte, len(args))
	for i, a := range args {
		out[i] = []byte(a)
	}
	return out
}

func wire(r resp.Reply) string { return string(resp.Encode(r)) }

// bulkPayload extracts the payload of a single encoded bulk-string reply,
// e.g. "$3\r\nbar\r\n" -> "bar". Used only to pull an auto-generated
// stream ID back out of an XADD reply for a follow-up command.
func bulkPayload(t *testing.T, w string) string {
	t.Helper()
	require.True(t, strings.HasPrefix(w, "$"))
	parts := strings.SplitN(w, "\r\n", 2)
	require.Len(t, parts, 2)
	n, err := strconv.Atoi(parts[0][1:])
	require.NoError(t, err)
	return parts[1][:n]
}

func TestSetGetRoundTrip(t *testing.T) {
	srv := newTestServer(clock.NewFake(1000))
	sess, _ := newTestSession(t, srv)

	assert.Equal(t, "+OK\r\n", wire(sess.dispatch("SET", c("SET", "foo", "bar"))))
	assert.Equal(t, "$3\r\nbar\r\n", wire(sess.dispatch("GET", c("GET", "foo"))))
}

// TestSetExpireThenAdvance is spec.md §8 scenario 1.
func TestSetExpireThenAdvance(t *testing.T) {
	fake := clock.NewFake(0)
	srv := newTestServer(fake)
	sess, _ := newTestSession(t, srv)

	sess.dispatch("SET", c("SET", "foo", "bar", "EX", "10"))
	assert.Equal(t, "$3\r\nbar\r\n", wire(sess.dispatch("GET", c("GET", "foo"))))
	assert.Equal(t, ":10\r\n", wire(sess.dispatch("TTL", c("TTL", "foo"))))

	fake.Advance(11_000)
	assert.Equal(t, "$-1\r\n", wire(sess.dispatch("GET", c("GET", "foo"))))
	assert.Equal(t, ":-2\r\n", wire(sess.dispatch("TTL", c("TTL", "foo"))))
}

// TestIncrByOverflow is spec.md §8 scenario 2.
func TestIncrByOverflow(t *testing.T) {
	srv := newTestServer(clock.NewFake(0))
	sess, _ := newTestSession(t, srv)

	sess.dispatch("SET", c("SET", "n", "9223372036854775806"))
	assert.Equal(t, ":9223372036854775807\r\n", wire(sess.dispatch("INCRBY", c("INCRBY", "n", "1"))))

	reply := wire(sess.dispatch("INCRBY", c("INCRBY", "n", "1")))
	assert.True(t, strings.HasPrefix(reply, "-ERR"))

	assert.Equal(t, "$19\r\n9223372036854775807\r\n", wire(sess.dispatch("GET", c("GET", "n"))))
}

// TestDecrByMinInt64IsRejected: -MinInt64 wraps back to MinInt64 under
// two's-complement negation, so DECRBY must refuse it outright rather
// than silently decrementing by the wrong amount.
func TestDecrByMinInt64IsRejected(t *testing.T) {
	srv := newTestServer(clock.NewFake(0))
	sess, _ := newTestSession(t, srv)

	sess.dispatch("SET", c("SET", "n", "5"))
	reply := wire(sess.dispatch("DECRBY", c("DECRBY", "n", "-9223372036854775808")))
	assert.True(t, strings.HasPrefix(reply, "-ERR"))

	assert.Equal(t, "$1\r\n5\r\n", wire(sess.dispatch("GET", c("GET", "n"))))
}

// TestXaddMonotonicIDAcrossLiteralAndAuto is spec.md §8 scenario 3.
func TestXaddMonotonicIDAcrossLiteralAndAuto(t *testing.T) {
	srv := newTestServer(clock.NewFake(5))
	sess, _ := newTestSession(t, srv)

	assert.Equal(t, "$3\r\n1-1\r\n", wire(sess.dispatch("XADD", c("XADD", "s", "1-1", "k", "v"))))

	reply := wire(sess.dispatch("XADD", c("XADD", "s", "1-1", "k", "v")))
	assert.True(t, strings.HasPrefix(reply, "-ERR"))

	autoID := bulkPayload(t, wire(sess.dispatch("XADD", c("XADD", "s", "*", "k", "v"))))
	assert.NotEqual(t, "1-1", autoID)
}

// TestMultiExecWatchAbortsOnConcurrentWrite is spec.md §8 scenario 4: a
// second session's write between WATCH and EXEC aborts the first.
func TestMultiExecWatchAbortsOnConcurrentWrite(t *testing.T) {
	srv := newTestServer(clock.NewFake(0))
	sessA, _ := newTestSession(t, srv)
	sessB, _ := newTestSession(t, srv)

	sessA.dispatch("SET", c("SET", "x", "1"))
	sessA.dispatch("WATCH", c("WATCH", "x"))
	sessA.dispatch("MULTI", c("MULTI"))
	assert.Equal(t, "+QUEUED\r\n", wire(sessA.dispatch("SET", c("SET", "x", "2"))))

	// B's write lands between A's WATCH and A's EXEC.
	sessB.dispatch("SET", c("SET", "x", "9"))

	assert.Equal(t, "*-1\r\n", wire(sessA.dispatch("EXEC", c("EXEC"))))
	assert.Equal(t, "$1\r\n9\r\n", wire(sessA.dispatch("GET", c("GET", "x"))))
}

// TestMultiExecRunsQueuedCommandsAtomically checks EXEC without a dirty
// WATCH actually applies every queued command, in order, replying with
// an array of their individual results.
func TestMultiExecRunsQueuedCommandsAtomically(t *testing.T) {
	srv := newTestServer(clock.NewFake(0))
	sess, _ := newTestSession(t, srv)

	sess.dispatch("MULTI", c("MULTI"))
	sess.dispatch("SET", c("SET", "a", "1"))
	sess.dispatch("INCR", c("INCR", "a"))
	reply := sess.dispatch("EXEC", c("EXEC"))

	assert.Equal(t, "*2\r\n+OK\r\n:2\r\n", wire(reply))
	val, ok, _ := sess.server.Store.GetString("a")
	require.True(t, ok)
	assert.Equal(t, "2", string(val))
}

// TestMultiExecAbortsOnQueueTimeArityError checks that a queue-time
// arity failure flags the transaction errored, and EXEC replies
// EXECABORT without running anything that was already queued.
func TestMultiExecAbortsOnQueueTimeArityError(t *testing.T) {
	srv := newTestServer(clock.NewFake(0))
	sess, _ := newTestSession(t, srv)

	sess.dispatch("MULTI", c("MULTI"))
	sess.dispatch("SET", c("SET", "a", "1"))
	reply := wire(sess.dispatch("SET", c("SET"))) // wrong arity
	assert.True(t, strings.HasPrefix(reply, "-ERR"))

	reply = wire(sess.dispatch("EXEC", c("EXEC")))
	assert.Equal(t, "-EXECABORT Transaction discarded because of previous errors.\r\n", reply)
	assert.False(t, sess.server.Store.Exists("a"))
}

// TestMultiExecAbortsOnUnknownQueuedCommand: an unrecognized command
// name inside MULTI dirties the transaction just like an arity error
// does, so EXEC replies EXECABORT instead of running the valid part of
// the queue.
func TestMultiExecAbortsOnUnknownQueuedCommand(t *testing.T) {
	srv := newTestServer(clock.NewFake(0))
	sess, _ := newTestSession(t, srv)

	sess.dispatch("MULTI", c("MULTI"))
	sess.dispatch("SET", c("SET", "a", "1"))
	reply := wire(sess.dispatch("NOSUCHCMD", c("NOSUCHCMD", "x")))
	assert.True(t, strings.HasPrefix(reply, "-ERR unknown command"))

	reply = wire(sess.dispatch("EXEC", c("EXEC")))
	assert.Equal(t, "-EXECABORT Transaction discarded because of previous errors.\r\n", reply)
	assert.False(t, sess.server.Store.Exists("a"))
}

// TestConsumerGroupDeliverPendingAck is spec.md §8 scenario 5.
func TestConsumerGroupDeliverPendingAck(t *testing.T) {
	srv := newTestServer(clock.NewFake(100))
	sess, _ := newTestSession(t, srv)

	require.Equal(t, "+OK\r\n", wire(sess.dispatch("XGROUP", c("XGROUP", "CREATE", "s", "g", "$", "MKSTREAM"))))

	id1 := bulkPayload(t, wire(sess.dispatch("XADD", c("XADD", "s", "*", "a", "1"))))

	readReply := wire(sess.dispatch("XREADGROUP", c("XREADGROUP", "GROUP", "g", "c1", "COUNT", "1", "STREAMS", "s", ">")))
	assert.Contains(t, readReply, id1)

	pending := wire(sess.dispatch("XPENDING", c("XPENDING", "s", "g")))
	assert.True(t, strings.HasPrefix(pending, "*4\r\n:1\r\n"))
	assert.Contains(t, pending, id1)

	assert.Equal(t, ":1\r\n", wire(sess.dispatch("XACK", c("XACK", "s", "g", id1))))

	pending = wire(sess.dispatch("XPENDING", c("XPENDING", "s", "g")))
	assert.Equal(t, "*4\r\n:0\r\n$-1\r\n$-1\r\n*-1\r\n", pending)
}

func TestBlockedXReadWokenByXAdd(t *testing.T) {
	srv := newTestServer(clock.NewFake(0))
	reader, _ := newTestSession(t, srv)
	writer, _ := newTestSession(t, srv)

	done := make(chan resp.Reply, 1)
	go func() {
		done <- reader.dispatch("XREAD", c("XREAD", "BLOCK", "0", "STREAMS", "s", "$"))
	}()
	// Give the reader a moment to park on the wait queue.
	time.Sleep(50 * time.Millisecond)
	writer.dispatch("XADD", c("XADD", "s", "1-1", "k", "v"))

	select {
	case reply := <-done:
		assert.Contains(t, wire(reply), "1-1")
	case <-time.After(2 * time.Second):
		t.Fatal("blocked XREAD was not woken by XADD")
	}
}

func TestJSONArrPopThroughDispatch(t *testing.T) {
	srv := newTestServer(clock.NewFake(0))
	sess, _ := newTestSession(t, srv)

	sess.dispatch("JSON.SET", c("JSON.SET", "doc", "$", `{"arr":[1,2,3]}`))
	assert.Equal(t, "$1\r\n3\r\n", wire(sess.dispatch("JSON.ARRPOP", c("JSON.ARRPOP", "doc", "$.arr"))))
	assert.Equal(t, "$5\r\n[1,2]\r\n", wire(sess.dispatch("JSON.GET", c("JSON.GET", "doc", "$.arr"))))
}

func TestVSearchOrdersByMetricAndHonorsLimit(t *testing.T) {
	srv := newTestServer(clock.NewFake(0))
	sess, _ := newTestSession(t, srv)

	sess.dispatch("VSET", c("VSET", "v", "e1", "VALUES", "2", "1", "0"))
	sess.dispatch("VSET", c("VSET", "v", "e2", "VALUES", "2", "0", "1"))

	reply := wire(sess.dispatch("VSEARCH", c("VSEARCH", "v", "COSINE", "VALUES", "2", "1", "0", "LIMIT", "1")))
	assert.Equal(t, "*1\r\n$2\r\ne1\r\n", reply)
}

// TestSubscribePublishReportsRecipientCount is spec.md §8 scenario 6,
// driven through real sessions' dispatch with every peer drained so the
// pushed confirmations and deliveries don't block on the pipe. It checks
// only PUBLISH's reported recipient count; internal/pubsub's own tests
// check the delivered messages against a fake subscriber.
func TestSubscribePublishReportsRecipientCount(t *testing.T) {
	srv := newTestServer(clock.NewFake(0))
	subA, peerA := newTestSession(t, srv)
	subB, peerB := newTestSession(t, srv)
	pub, peerPub := newTestSession(t, srv)
	drainPeer(peerA)
	drainPeer(peerB)
	drainPeer(peerPub)

	subA.dispatch("SUBSCRIBE", c("SUBSCRIBE", "ch1"))
	subB.dispatch("PSUBSCRIBE", c("PSUBSCRIBE", "ch?"))

	assert.Equal(t, ":2\r\n", wire(pub.dispatch("PUBLISH", c("PUBLISH", "ch1", "hello"))))
}
