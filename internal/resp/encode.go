package resp

import (
	"strconv"
)

const crlf = "\r\n"

// Reply is a RESP reply value. Build one with the constructor functions
// below and hand it to Encoder.WriteReply; nested arrays are built by
// putting further Replies in Reply.Array.
type Reply struct {
	kind byte // one of '+', '-', ':', '$', '*' (Push also uses '*'); the zero value writes nothing
	str  string
	num  int64
	null bool
	arr  []Reply
}

func Simple(s string) Reply { return Reply{kind: '+', str: s} }
func Err(s string) Reply    { return Reply{kind: '-', str: s} }
func Int(n int64) Reply     { return Reply{kind: ':', num: n} }

func Bulk(s string) Reply     { return Reply{kind: '$', str: s} }
func BulkBytes(b []byte) Reply {
	if b == nil {
		return NullBulk()
	}
	return Reply{kind: '$', str: string(b)}
}
func NullBulk() Reply { return Reply{kind: '$', null: true} }

func Array(items []Reply) Reply { return Reply{kind: '*', arr: items} }
func NullArray() Reply          { return Reply{kind: '*', null: true} }

// Push builds a pub/sub push message: an array prefixed, in RESP2, the
// same as a regular array -- the "push" category token is the first
// element of the array itself (e.g. "message", "pmessage").
func Push(items []Reply) Reply { return Reply{kind: '*', arr: items} }

func Strings(items ...string) Reply {
	r := make([]Reply, len(items))
	for i, s := range items {
		r[i] = Bulk(s)
	}
	return Array(r)
}

// Encoder accumulates an outbound RESP byte stream. The buffer is exported
// so callers can flush it straight to a net.Conn.
type Encoder struct {
	Buf []byte
}

func (e *Encoder) Reset() { e.Buf = nil }

func (e *Encoder) WriteReply(r Reply) {
	switch r.kind {
	case '+':
		e.Buf = append(e.Buf, '+')
		e.Buf = append(e.Buf, r.str...)
		e.Buf = append(e.Buf, crlf...)
	case '-':
		e.Buf = append(e.Buf, '-')
		e.Buf = append(e.Buf, r.str...)
		e.Buf = append(e.Buf, crlf...)
	case ':':
		e.Buf = append(e.Buf, ':')
		e.Buf = append(e.Buf, strconv.FormatInt(r.num, 10)...)
		e.Buf = append(e.Buf, crlf...)
	case '$':
		if r.null {
			e.Buf = append(e.Buf, "$-1\r\n"...)
			return
		}
		e.Buf = append(e.Buf, '$')
		e.Buf = append(e.Buf, strconv.Itoa(len(r.str))...)
		e.Buf = append(e.Buf, crlf...)
		e.Buf = append(e.Buf, r.str...)
		e.Buf = append(e.Buf, crlf...)
	case '*':
		if r.null {
			e.Buf = append(e.Buf, "*-1\r\n"...)
			return
		}
		e.Buf = append(e.Buf, '*')
		e.Buf = append(e.Buf, strconv.Itoa(len(r.arr))...)
		e.Buf = append(e.Buf, crlf...)
		for _, item := range r.arr {
			e.WriteReply(item)
		}
	}
}

// Encode is a convenience one-shot encode, used by tests.
func Encode(r Reply) []byte {
	e := Encoder{}
	e.WriteReply(r)
	return e.Buf
}
