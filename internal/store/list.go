package store

import "errors"

var ErrNoSuchKey = errors.New("ERR no such key")
var ErrIndexOutOfRange = errors.New("ERR index out of range")

func newList() *Value {
	return &Value{Kind: KindList}
}

// Push prepends (left=true) or appends values to the list at key,
// creating it if necessary. Returns the resulting length.
func (k *Keyspace) Push(key string, values [][]byte, left bool) (int, error) {
	v, existed := k.GetOrCreate(key, newList)
	if existed && v.Kind != KindList {
		return 0, ErrWrongType
	}
	if left {
		// values arrive in command order; each is pushed individually, so
		// LPUSH k a b c results in [c, b, a, ...old...].
		for _, val := range values {
			v.List = append([][]byte{val}, v.List...)
		}
	} else {
		v.List = append(v.List, values...)
	}
	k.Touch(key)
	return len(v.List), nil
}

// Pop removes and returns the head (left=true) or tail element. Deletes
// the key if the list becomes empty.
func (k *Keyspace) Pop(key string, left bool) ([]byte, bool, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, false, nil
	}
	if v.Kind != KindList {
		return nil, false, ErrWrongType
	}
	if len(v.List) == 0 {
		return nil, false, nil
	}

	var val []byte
	if left {
		val = v.List[0]
		v.List = v.List[1:]
	} else {
		val = v.List[len(v.List)-1]
		v.List = v.List[:len(v.List)-1]
	}
	k.Touch(key)
	k.DeleteIfEmpty(key, v)
	return val, true, nil
}

// Range returns the inclusive [start, stop] window, with negative
// indices counting from the tail and out-of-range indices clamped.
func (k *Keyspace) Range(key string, start, stop int) ([][]byte, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindList {
		return nil, ErrWrongType
	}
	n := len(v.List)
	start, stop = clampRange(start, stop, n)
	if start > stop {
		return [][]byte{}, nil
	}
	out := make([][]byte, stop-start+1)
	copy(out, v.List[start:stop+1])
	return out, nil
}

func clampRange(start, stop, n int) (int, int) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	return start, stop
}

// Index returns the element at idx (negative counts from the tail), or
// (nil, false) if out of range.
func (k *Keyspace) Index(key string, idx int) ([]byte, bool, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, false, nil
	}
	if v.Kind != KindList {
		return nil, false, ErrWrongType
	}
	n := len(v.List)
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return nil, false, nil
	}
	return v.List[idx], true, nil
}

// SetIndex overwrites the element at idx.
func (k *Keyspace) SetIndex(key string, idx int, val []byte) error {
	v, ok := k.Get(key)
	if !ok {
		return ErrNoSuchKey
	}
	if v.Kind != KindList {
		return ErrWrongType
	}
	n := len(v.List)
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return ErrIndexOutOfRange
	}
	v.List[idx] = val
	k.Touch(key)
	return nil
}

// Trim keeps only the [start, stop] window, deleting the key if that
// window is empty.
func (k *Keyspace) Trim(key string, start, stop int) error {
	v, ok := k.Get(key)
	if !ok {
		return nil
	}
	if v.Kind != KindList {
		return ErrWrongType
	}
	n := len(v.List)
	start, stop = clampRange(start, stop, n)
	if start > stop {
		v.List = nil
	} else {
		v.List = append([][]byte{}, v.List[start:stop+1]...)
	}
	k.Touch(key)
	k.DeleteIfEmpty(key, v)
	return nil
}

func (k *Keyspace) Len(key string) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindList {
		return 0, ErrWrongType
	}
	return len(v.List), nil
}

// Pos returns the index of the first occurrence of val, or (0, false) if
// not present.
func (k *Keyspace) Pos(key string, val []byte) (int, bool, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, false, nil
	}
	if v.Kind != KindList {
		return 0, false, ErrWrongType
	}
	for i, elem := range v.List {
		if string(elem) == string(val) {
			return i, true, nil
		}
	}
	return 0, false, nil
}

// RPopLPush pops the tail of src and pushes it to the head of dst,
// atomically from the caller's point of view (both mutate under the
// caller's already-held keyspace lock).
func (k *Keyspace) RPopLPush(src, dst string) ([]byte, bool, error) {
	val, ok, err := k.Pop(src, false)
	if err != nil || !ok {
		return nil, ok, err
	}
	if _, err := k.Push(dst, [][]byte{val}, true); err != nil {
		return nil, false, err
	}
	return val, true, nil
}
