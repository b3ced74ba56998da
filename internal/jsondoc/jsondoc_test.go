package jsondoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRootAndGet(t *testing.T) {
	out, err := Set(nil, "$", `{"a":1,"b":{"c":2}}`)
	require.NoError(t, err)

	got, err := Get(out, "$.b.c")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestSetRejectsInvalidRootJSON(t *testing.T) {
	_, err := Set(nil, "$", `not json`)
	assert.ErrorIs(t, err, ErrBadJSON)
}

func TestSetMissingParentFails(t *testing.T) {
	doc, err := Set(nil, "$", `{"a":1}`)
	require.NoError(t, err)

	_, err = Set(doc, "$.missing.child", "5")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTypeReportsKind(t *testing.T) {
	doc, _ := Set(nil, "$", `{"s":"x","n":1,"b":true,"nil":null,"arr":[1,2]}`)

	typ, err := Type(doc, "$.s")
	require.NoError(t, err)
	assert.Equal(t, "string", typ)

	typ, _ = Type(doc, "$.n")
	assert.Equal(t, "number", typ)

	typ, _ = Type(doc, "$.b")
	assert.Equal(t, "boolean", typ)

	typ, _ = Type(doc, "$.arr")
	assert.Equal(t, "array", typ)
}

func TestDelRemovesPath(t *testing.T) {
	doc, _ := Set(nil, "$", `{"a":1,"b":2}`)
	out, existed, err := Del(doc, "$.a")
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = Get(out, "$.a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArrAppendAndTrim(t *testing.T) {
	doc, _ := Set(nil, "$", `{"arr":[1,2,3]}`)

	out, n, err := ArrAppend(doc, "$.arr", []string{"4", "5"})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	out, n, err = ArrTrim(out, "$.arr", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := Get(out, "$.arr")
	require.NoError(t, err)
	assert.Equal(t, "[2,3,4]", got)
}

func TestArrInsertAtIndex(t *testing.T) {
	doc, _ := Set(nil, "$", `{"arr":[1,2,3]}`)
	out, n, err := ArrInsert(doc, "$.arr", 1, []string{"99"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := Get(out, "$.arr")
	require.NoError(t, err)
	assert.Equal(t, "[1,99,2,3]", got)
}

func TestArrPop(t *testing.T) {
	doc, _ := Set(nil, "$", `{"arr":[1,2,3]}`)

	out, removed, popped, err := ArrPop(doc, "$.arr", -1)
	require.NoError(t, err)
	assert.True(t, popped)
	assert.Equal(t, "3", removed)

	out, removed, popped, err = ArrPop(out, "$.arr", 0)
	require.NoError(t, err)
	assert.True(t, popped)
	assert.Equal(t, "1", removed)

	got, err := Get(out, "$.arr")
	require.NoError(t, err)
	assert.Equal(t, "[2]", got)
}

func TestArrPopEmptyArray(t *testing.T) {
	doc, _ := Set(nil, "$", `{"arr":[]}`)
	_, _, popped, err := ArrPop(doc, "$.arr", -1)
	require.NoError(t, err)
	assert.False(t, popped)
}

func TestStrLen(t *testing.T) {
	doc, _ := Set(nil, "$", `{"s":"hello"}`)
	n, err := StrLen(doc, "$.s")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestNumIncrBy(t *testing.T) {
	doc, _ := Set(nil, "$", `{"n":10}`)
	out, next, err := NumIncrBy(doc, "$.n", 2.5)
	require.NoError(t, err)
	assert.Equal(t, 12.5, next)

	got, err := Get(out, "$.n")
	require.NoError(t, err)
	assert.Equal(t, "12.5", got)
}

func TestNumIncrByRejectsNonNumber(t *testing.T) {
	doc, _ := Set(nil, "$", `{"s":"x"}`)
	_, _, err := NumIncrBy(doc, "$.s", 1)
	assert.ErrorIs(t, err, ErrNotNumber)
}
