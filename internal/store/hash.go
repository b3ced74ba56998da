package store

// HSet adds or overwrites fields on the hash at key, creating it if
// necessary. Returns the count of newly created fields.
func (k *Keyspace) HSet(key string, fields [][2][]byte) (int, error) {
	v, existed := k.GetOrCreate(key, newHash)
	if existed && v.Kind != KindHash {
		return 0, ErrWrongType
	}

	created := 0
	for _, kv := range fields {
		field, val := string(kv[0]), kv[1]
		if _, has := v.hashFields[field]; !has {
			v.hashOrder = append(v.hashOrder, field)
			created++
		}
		v.hashFields[field] = val
	}
	k.Touch(key)
	return created, nil
}

// HSetNX sets field only if it does not already exist. Returns whether it
// was set.
func (k *Keyspace) HSetNX(key string, field string, val []byte) (bool, error) {
	v, existed := k.GetOrCreate(key, newHash)
	if existed && v.Kind != KindHash {
		return false, ErrWrongType
	}
	if _, has := v.hashFields[field]; has {
		return false, nil
	}
	v.hashFields[field] = val
	v.hashOrder = append(v.hashOrder, field)
	k.Touch(key)
	return true, nil
}

// HGet returns the value of field, or (nil, false) if the hash or the
// field is missing.
func (k *Keyspace) HGet(key, field string) ([]byte, bool, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, false, nil
	}
	if v.Kind != KindHash {
		return nil, false, ErrWrongType
	}
	val, has := v.hashFields[field]
	return val, has, nil
}

// HMGet returns the value for each requested field, with a per-field
// found flag so the caller can encode a null bulk for the misses.
func (k *Keyspace) HMGet(key string, fields []string) ([][]byte, []bool, error) {
	v, ok := k.Get(key)
	out := make([][]byte, len(fields))
	found := make([]bool, len(fields))
	if !ok {
		return out, found, nil
	}
	if v.Kind != KindHash {
		return nil, nil, ErrWrongType
	}
	for i, f := range fields {
		if val, has := v.hashFields[f]; has {
			out[i] = val
			found[i] = true
		}
	}
	return out, found, nil
}

// HDel removes the named fields, deleting the key if it becomes empty.
// Returns the count actually removed.
func (k *Keyspace) HDel(key string, fields []string) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindHash {
		return 0, ErrWrongType
	}

	removed := 0
	for _, f := range fields {
		if _, has := v.hashFields[f]; has {
			delete(v.hashFields, f)
			v.hashOrder = removeString(v.hashOrder, f)
			removed++
		}
	}
	if removed > 0 {
		k.Touch(key)
		k.DeleteIfEmpty(key, v)
	}
	return removed, nil
}

// HGetAll returns a flat field, value, field, value, ... slice in
// insertion order.
func (k *Keyspace) HGetAll(key string) ([][2][]byte, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindHash {
		return nil, ErrWrongType
	}
	out := make([][2][]byte, 0, len(v.hashOrder))
	for _, f := range v.hashOrder {
		out = append(out, [2][]byte{[]byte(f), v.hashFields[f]})
	}
	return out, nil
}

func (k *Keyspace) HLen(key string) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindHash {
		return 0, ErrWrongType
	}
	return len(v.hashFields), nil
}

func (k *Keyspace) HExists(key, field string) (bool, error) {
	v, ok := k.Get(key)
	if !ok {
		return false, nil
	}
	if v.Kind != KindHash {
		return false, ErrWrongType
	}
	_, has := v.hashFields[field]
	return has, nil
}

func (k *Keyspace) HKeys(key string) ([]string, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindHash {
		return nil, ErrWrongType
	}
	out := make([]string, len(v.hashOrder))
	copy(out, v.hashOrder)
	return out, nil
}

func (k *Keyspace) HVals(key string) ([][]byte, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindHash {
		return nil, ErrWrongType
	}
	out := make([][]byte, 0, len(v.hashOrder))
	for _, f := range v.hashOrder {
		out = append(out, v.hashFields[f])
	}
	return out, nil
}

func removeString(s []string, target string) []string {
	for i, v := range s {
		if v == target {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
