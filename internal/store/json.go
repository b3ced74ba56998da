package store

import "github.com/flondb/redisd/internal/jsondoc"

func newJSON() *Value {
	return &Value{Kind: KindJSON}
}

// JSONSet implements JSON.SET key path rawValue.
func (k *Keyspace) JSONSet(key, path, rawValue string) error {
	v, existed := k.GetOrCreate(key, newJSON)
	if existed && v.Kind != KindJSON {
		return ErrWrongType
	}
	out, err := jsondoc.Set(v.JSON, path, rawValue)
	if err != nil {
		return err
	}
	v.JSON = out
	k.Touch(key)
	return nil
}

func (k *Keyspace) JSONGet(key string, paths []string) (string, error) {
	v, ok := k.Get(key)
	if !ok {
		return "", ErrNoSuchKey
	}
	if v.Kind != KindJSON {
		return "", ErrWrongType
	}
	if len(paths) <= 1 {
		path := "$"
		if len(paths) == 1 {
			path = paths[0]
		}
		return jsondoc.Get(v.JSON, path)
	}
	return jsondoc.GetMulti(v.JSON, paths)
}

func (k *Keyspace) JSONType(key, path string) (string, error) {
	v, ok := k.Get(key)
	if !ok {
		return "", ErrNoSuchKey
	}
	if v.Kind != KindJSON {
		return "", ErrWrongType
	}
	return jsondoc.Type(v.JSON, path)
}

// JSONDel removes path from the document, returning the number of paths
// removed (0 or 1) and deleting the key entirely if path was "$".
func (k *Keyspace) JSONDel(key, path string) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindJSON {
		return 0, ErrWrongType
	}
	out, existed, err := jsondoc.Del(v.JSON, path)
	if err != nil {
		return 0, err
	}
	if !existed {
		return 0, nil
	}
	if path == "$" || path == "." {
		k.Delete(key)
		return 1, nil
	}
	v.JSON = out
	k.Touch(key)
	return 1, nil
}

func (k *Keyspace) withJSON(key string, f func(doc []byte) ([]byte, int, error)) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, ErrNoSuchKey
	}
	if v.Kind != KindJSON {
		return 0, ErrWrongType
	}
	out, n, err := f(v.JSON)
	if err != nil {
		return 0, err
	}
	v.JSON = out
	k.Touch(key)
	return n, nil
}

func (k *Keyspace) JSONArrAppend(key, path string, rawValues []string) (int, error) {
	return k.withJSON(key, func(doc []byte) ([]byte, int, error) {
		return jsondoc.ArrAppend(doc, path, rawValues)
	})
}

func (k *Keyspace) JSONArrInsert(key, path string, idx int, rawValues []string) (int, error) {
	return k.withJSON(key, func(doc []byte) ([]byte, int, error) {
		return jsondoc.ArrInsert(doc, path, idx, rawValues)
	})
}

// JSONArrPop removes the element at idx (negative counts from the end)
// and returns its raw JSON form; ok is false when the array was empty.
func (k *Keyspace) JSONArrPop(key, path string, idx int) (string, bool, error) {
	v, ok := k.Get(key)
	if !ok {
		return "", false, ErrNoSuchKey
	}
	if v.Kind != KindJSON {
		return "", false, ErrWrongType
	}
	out, removed, popped, err := jsondoc.ArrPop(v.JSON, path, idx)
	if err != nil {
		return "", false, err
	}
	if !popped {
		return "", false, nil
	}
	v.JSON = out
	k.Touch(key)
	return removed, true, nil
}

func (k *Keyspace) JSONArrTrim(key, path string, start, stop int) (int, error) {
	return k.withJSON(key, func(doc []byte) ([]byte, int, error) {
		return jsondoc.ArrTrim(doc, path, start, stop)
	})
}

func (k *Keyspace) JSONStrLen(key, path string) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, ErrNoSuchKey
	}
	if v.Kind != KindJSON {
		return 0, ErrWrongType
	}
	return jsondoc.StrLen(v.JSON, path)
}

func (k *Keyspace) JSONNumIncrBy(key, path string, delta float64) (float64, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, ErrNoSuchKey
	}
	if v.Kind != KindJSON {
		return 0, ErrWrongType
	}
	out, next, err := jsondoc.NumIncrBy(v.JSON, path, delta)
	if err != nil {
		return 0, err
	}
	v.JSON = out
	k.Touch(key)
	return next, nil
}
