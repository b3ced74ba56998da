package store

import (
	"errors"
	"strconv"
)

var (
	ErrNotInteger = errors.New("ERR value is not an integer or out of range")
	ErrSyntax     = errors.New("ERR syntax error")
)

// SetOpts controls SET's optional clauses.
type SetOpts struct {
	HasExpireMs bool
	ExpireAtMs  int64
	NX          bool
	XX          bool
}

// SetString implements SET key value [EX s | PX ms] [NX | XX]. Returns
// false if a conditional (NX/XX) was not satisfied; the caller replies
// with a null bulk string in that case.
func (k *Keyspace) SetString(key string, val []byte, opts SetOpts) (bool, error) {
	_, ok := k.Get(key)
	if opts.NX && ok {
		return false, nil
	}
	if opts.XX && !ok {
		return false, nil
	}

	k.Set(key, &Value{Kind: KindString, Str: val})
	if opts.HasExpireMs {
		k.SetExpireAt(key, opts.ExpireAtMs)
	}
	return true, nil
}

// GetString returns the string at key, or (nil, false) if missing.
func (k *Keyspace) GetString(key string) ([]byte, bool, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, false, nil
	}
	if v.Kind != KindString {
		return nil, false, ErrWrongType
	}
	return v.Str, true, nil
}

// IncrBy parses the current value as a signed 64-bit decimal integer and
// adds delta, saturating-checked: overflow leaves the value untouched
// and returns ErrNotInteger.
func (k *Keyspace) IncrBy(key string, delta int64) (int64, error) {
	v, ok := k.Get(key)
	var cur int64
	if ok {
		if v.Kind != KindString {
			return 0, ErrWrongType
		}
		parsed, err := strconv.ParseInt(string(v.Str), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		cur = parsed
	}

	next := cur + delta
	// Overflow check: if delta > 0 the result must be > cur; if delta < 0
	// it must be < cur.
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return 0, ErrNotInteger
	}

	nv := &Value{Kind: KindString, Str: []byte(strconv.FormatInt(next, 10))}
	if ok {
		*v = *nv
		k.Touch(key)
	} else {
		k.Set(key, nv)
	}
	return next, nil
}
