// Package jsondoc implements the JSON document kind's path operations.
// Documents are kept as raw serialized JSON bytes; gjson evaluates path
// queries directly against that representation (no separate parsed-tree
// struct is needed in Go, since gjson's whole point is querying raw
// bytes/strings without building one), and sjson performs the in-place
// path mutation, producing the new serialized bytes that replace the
// stored value. This is the JSON-pointer-evaluation helper spec.md §1
// calls out as a pure, externally supplied module.
package jsondoc

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	ErrNotFound   = errors.New("ERR path does not exist")
	ErrBadJSON    = errors.New("ERR invalid JSON")
	ErrNotArray   = errors.New("ERR path is not an array")
	ErrNotNumber  = errors.New("ERR value is not a number")
)

// toGJSONPath converts a Redis-style JSONPath ("$", "$.a.b", "$.a[0]")
// into the dotted path gjson/sjson expect ("a.b", "a.0"). "$" alone
// means the whole document.
func toGJSONPath(path string) string {
	p := strings.TrimPrefix(path, "$")
	p = strings.TrimPrefix(p, ".")
	p = strings.ReplaceAll(p, "[", ".")
	p = strings.ReplaceAll(p, "]", "")
	return p
}

// Set replaces (or creates) the document at the given path. path "$"
// replaces the whole document; any other path requires the parent to
// already exist in doc.
func Set(doc []byte, path string, rawValue string) ([]byte, error) {
	gp := toGJSONPath(path)
	if gp == "" {
		if !gjson.Valid(rawValue) {
			return nil, ErrBadJSON
		}
		return []byte(rawValue), nil
	}

	if doc == nil {
		doc = []byte("{}")
	}

	parent := parentPath(gp)
	if parent != "" && !gjson.GetBytes(doc, parent).Exists() {
		return nil, ErrNotFound
	}

	out, err := sjson.SetRawBytes(doc, gp, []byte(rawValue))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parentPath(gp string) string {
	idx := strings.LastIndex(gp, ".")
	if idx == -1 {
		return ""
	}
	return gp[:idx]
}

// Get returns the serialized sub-document at path, or ErrNotFound.
func Get(doc []byte, path string) (string, error) {
	gp := toGJSONPath(path)
	var res gjson.Result
	if gp == "" {
		res = gjson.ParseBytes(doc)
	} else {
		res = gjson.GetBytes(doc, gp)
	}
	if !res.Exists() {
		return "", ErrNotFound
	}
	return res.Raw, nil
}

// GetMulti returns an object keyed by path, for JSON.GET with multiple
// paths.
func GetMulti(doc []byte, paths []string) (string, error) {
	out := "{}"
	for _, p := range paths {
		val, err := Get(doc, p)
		if err != nil {
			continue
		}
		out, err = sjson.SetRaw(out, jsonKeyEscape(p), val)
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

func jsonKeyEscape(p string) string {
	return strings.ReplaceAll(p, ".", "\\.")
}

// Type returns one of object|array|string|number|boolean|null.
func Type(doc []byte, path string) (string, error) {
	gp := toGJSONPath(path)
	var res gjson.Result
	if gp == "" {
		res = gjson.ParseBytes(doc)
	} else {
		res = gjson.GetBytes(doc, gp)
	}
	if !res.Exists() {
		return "", ErrNotFound
	}
	switch res.Type {
	case gjson.String:
		return "string", nil
	case gjson.Number:
		return "number", nil
	case gjson.True, gjson.False:
		return "boolean", nil
	case gjson.Null:
		return "null", nil
	}
	if res.IsArray() {
		return "array", nil
	}
	return "object", nil
}

// Del removes path from doc, returning the updated document and whether
// the path existed.
func Del(doc []byte, path string) ([]byte, bool, error) {
	gp := toGJSONPath(path)
	if gp == "" {
		return nil, true, nil
	}
	if !gjson.GetBytes(doc, gp).Exists() {
		return doc, false, nil
	}
	out, err := sjson.DeleteBytes(doc, gp)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// ArrAppend appends rawValues to the array at path.
func ArrAppend(doc []byte, path string, rawValues []string) ([]byte, int, error) {
	gp := toGJSONPath(path)
	res := gjson.GetBytes(doc, gp)
	if !res.Exists() || !res.IsArray() {
		return nil, 0, ErrNotArray
	}
	out := doc
	n := len(res.Array())
	for _, rv := range rawValues {
		var err error
		out, err = sjson.SetRawBytes(out, gp+".-1", []byte(rv))
		if err != nil {
			return nil, 0, err
		}
		n++
	}
	return out, n, nil
}

// ArrInsert inserts rawValues at idx within the array at path. Negative
// indices count from the end, clamped per Redis semantics.
func ArrInsert(doc []byte, path string, idx int, rawValues []string) ([]byte, int, error) {
	gp := toGJSONPath(path)
	res := gjson.GetBytes(doc, gp)
	if !res.Exists() || !res.IsArray() {
		return nil, 0, ErrNotArray
	}
	arr := res.Array()
	n := len(arr)
	if idx < 0 {
		idx += n
	}
	if idx < 0 {
		idx = 0
	}
	if idx > n {
		idx = n
	}

	items := make([]string, 0, n+len(rawValues))
	for i, v := range arr {
		if i == idx {
			items = append(items, rawValues...)
		}
		items = append(items, v.Raw)
	}
	if idx == n {
		items = append(items, rawValues...)
	}

	newArr := "[" + strings.Join(items, ",") + "]"
	out, err := sjson.SetRawBytes(doc, gp, []byte(newArr))
	if err != nil {
		return nil, 0, err
	}
	return out, len(items), nil
}

// ArrPop removes and returns the element at idx within the array at
// path. Negative indices count from the end, clamped to the array
// bounds. Popping an empty array returns removed=false.
func ArrPop(doc []byte, path string, idx int) ([]byte, string, bool, error) {
	gp := toGJSONPath(path)
	res := gjson.GetBytes(doc, gp)
	if !res.Exists() || !res.IsArray() {
		return nil, "", false, ErrNotArray
	}
	arr := res.Array()
	n := len(arr)
	if n == 0 {
		return doc, "", false, nil
	}
	if idx < 0 {
		idx += n
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}

	removed := arr[idx].Raw
	items := make([]string, 0, n-1)
	for i, v := range arr {
		if i == idx {
			continue
		}
		items = append(items, v.Raw)
	}
	newArr := "[" + strings.Join(items, ",") + "]"
	out, err := sjson.SetRawBytes(doc, gp, []byte(newArr))
	if err != nil {
		return nil, "", false, err
	}
	return out, removed, true, nil
}

// ArrTrim keeps only [start, stop] of the array at path.
func ArrTrim(doc []byte, path string, start, stop int) ([]byte, int, error) {
	gp := toGJSONPath(path)
	res := gjson.GetBytes(doc, gp)
	if !res.Exists() || !res.IsArray() {
		return nil, 0, ErrNotArray
	}
	arr := res.Array()
	n := len(arr)
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		out, err := sjson.SetRawBytes(doc, gp, []byte("[]"))
		return out, 0, err
	}

	items := make([]string, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		items = append(items, arr[i].Raw)
	}
	newArr := "[" + strings.Join(items, ",") + "]"
	out, err := sjson.SetRawBytes(doc, gp, []byte(newArr))
	if err != nil {
		return nil, 0, err
	}
	return out, len(items), nil
}

// StrLen returns the byte length of the string at path.
func StrLen(doc []byte, path string) (int, error) {
	gp := toGJSONPath(path)
	res := gjson.GetBytes(doc, gp)
	if !res.Exists() || res.Type != gjson.String {
		return 0, ErrNotFound
	}
	return len(res.Str), nil
}

// NumIncrBy adds delta to the number at path, returning the updated
// document and the new numeric value.
func NumIncrBy(doc []byte, path string, delta float64) ([]byte, float64, error) {
	gp := toGJSONPath(path)
	res := gjson.GetBytes(doc, gp)
	if !res.Exists() || res.Type != gjson.Number {
		return nil, 0, ErrNotNumber
	}
	next := res.Num + delta
	out, err := sjson.SetBytes(doc, gp, next)
	if err != nil {
		return nil, 0, err
	}
	return out, next, nil
}
