package store

import (
	"errors"
	"sort"

	"github.com/flondb/redisd/internal/vecmath"
)

var ErrDimMismatch = errors.New("ERR vector dimension mismatch")

// VectorIndex maps element name to a fixed-dimensionality float vector.
// Dimensionality is established by the first VSET and enforced on every
// subsequent one.
type VectorIndex struct {
	dim     int
	vectors map[string][]float64
}

func newVectorIndex() *Value {
	return &Value{Kind: KindVector, Vector: &VectorIndex{vectors: map[string][]float64{}}}
}

func (k *Keyspace) VSet(key, element string, vec []float64) error {
	v, existed := k.GetOrCreate(key, newVectorIndex)
	if existed && v.Kind != KindVector {
		return ErrWrongType
	}
	idx := v.Vector
	if idx.dim == 0 {
		idx.dim = len(vec)
	} else if idx.dim != len(vec) {
		return ErrDimMismatch
	}
	idx.vectors[element] = vec
	k.Touch(key)
	return nil
}

func (k *Keyspace) VDel(key, element string) (bool, error) {
	v, ok := k.Get(key)
	if !ok {
		return false, nil
	}
	if v.Kind != KindVector {
		return false, ErrWrongType
	}
	if _, has := v.Vector.vectors[element]; !has {
		return false, nil
	}
	delete(v.Vector.vectors, element)
	k.Touch(key)
	k.DeleteIfEmpty(key, v)
	return true, nil
}

func (k *Keyspace) VCard(key string) (int, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindVector {
		return 0, ErrWrongType
	}
	return len(v.Vector.vectors), nil
}

func (k *Keyspace) VDim(key string) (int, bool, error) {
	v, ok := k.Get(key)
	if !ok {
		return 0, false, nil
	}
	if v.Kind != KindVector {
		return 0, false, ErrWrongType
	}
	return v.Vector.dim, true, nil
}

type VSimResult struct {
	Element string
	Score   float64
}

// VSim computes metric(query, element) for every stored element and
// returns the top-k, applying offset before limit. Ordering is
// descending for COSINE/DOT, ascending for L2; ties break by
// lexicographic element name.
func (k *Keyspace) VSim(key string, query []float64, metric vecmath.Metric, offset, limit int) ([]VSimResult, error) {
	v, ok := k.Get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindVector {
		return nil, ErrWrongType
	}
	if len(query) != v.Vector.dim {
		return nil, ErrDimMismatch
	}

	results := make([]VSimResult, 0, len(v.Vector.vectors))
	for name, vec := range v.Vector.vectors {
		results = append(results, VSimResult{
			Element: name,
			Score:   vecmath.Similarity(metric, query, vec),
		})
	}

	desc := metric.Descending()
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			if desc {
				return results[i].Score > results[j].Score
			}
			return results[i].Score < results[j].Score
		}
		return results[i].Element < results[j].Element
	})

	if offset > len(results) {
		offset = len(results)
	}
	results = results[offset:]
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}
