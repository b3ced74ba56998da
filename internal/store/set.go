package store

// SAdd adds members to the set at key, creating it if necessary. Returns
// the count actually added.
func (k *Keyspace) SAdd(key string, members [][]byte) (int, error) {
	v, existed := k.GetOrCreate(key, newSet)
	if existed && v.Kind != KindSet {
		return 0, ErrWrongType
	}
	added := 0
	for _, m := range members {
		if _, has := v.Set[string(m)]; !has {
			v.Set[string(m)] = struct{}{}
			added++
		}
	}
	if added > 0 {
		k.Touch(key)
	}
	return added, nil
}

// SRem removes members, deleting the key if it becomes empty. Returns
// the count actually removed.
func (k *Keyspace) SRem(key string, members [][]byte) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindSet {
		return 0, ErrWrongType
	}
	removed := 0
	for _, m := range members {
		if _, has := v.Set[string(m)]; has {
			delete(v.Set, string(m))
			removed++
		}
	}
	if removed > 0 {
		k.Touch(key)
		k.DeleteIfEmpty(key, v)
	}
	return removed, nil
}

// Members returns the set's elements in an unspecified but stable order
// for this call (map iteration order, the same as real Redis gives no
// ordering guarantee either).
func (k *Keyspace) Members(key string) ([][]byte, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindSet {
		return nil, ErrWrongType
	}
	out := make([][]byte, 0, len(v.Set))
	for m := range v.Set {
		out = append(out, []byte(m))
	}
	return out, nil
}

func (k *Keyspace) SIsMember(key string, member []byte) (bool, error) {
	v, ok := k.Get(key)
	if !ok {
		return false, nil
	}
	if v.Kind != KindSet {
		return false, ErrWrongType
	}
	_, has := v.Set[string(member)]
	return has, nil
}

func (k *Keyspace) SCard(key string) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindSet {
		return 0, ErrWrongType
	}
	return len(v.Set), nil
}

type setOp func(a, b map[string]struct{}) map[string]struct{}

func (k *Keyspace) combine(keys []string, op setOp) ([][]byte, error) {
	var result map[string]struct{}
	for i, key := range keys {
		v, ok := k.Get(key)
		var cur map[string]struct{}
		if ok {
			if v.Kind != KindSet {
				return nil, ErrWrongType
			}
			cur = v.Set
		} else {
			cur = map[string]struct{}{}
		}
		if i == 0 {
			result = cloneSet(cur)
		} else {
			result = op(result, cur)
		}
	}
	out := make([][]byte, 0, len(result))
	for m := range result {
		out = append(out, []byte(m))
	}
	return out, nil
}

func cloneSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func (k *Keyspace) SInter(keys []string) ([][]byte, error) {
	return k.combine(keys, func(a, b map[string]struct{}) map[string]struct{} {
		out := map[string]struct{}{}
		for m := range a {
			if _, has := b[m]; has {
				out[m] = struct{}{}
			}
		}
		return out
	})
}

func (k *Keyspace) SUnion(keys []string) ([][]byte, error) {
	return k.combine(keys, func(a, b map[string]struct{}) map[string]struct{} {
		for m := range b {
			a[m] = struct{}{}
		}
		return a
	})
}

func (k *Keyspace) SDiff(keys []string) ([][]byte, error) {
	return k.combine(keys, func(a, b map[string]struct{}) map[string]struct{} {
		for m := range b {
			delete(a, m)
		}
		return a
	})
}
