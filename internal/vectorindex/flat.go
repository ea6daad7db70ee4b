package vectorindex

import (
	"errors"
	"fmt"
	"sort"
)

// Hit is one nearest-neighbour result: the position of the stored vector and
// its squared Euclidean distance to the query.
type Hit struct {
	Position int
	Distance float64
}

// Flat is an exhaustive L2 index. Position i is the i-th vector added.
// A Flat is not safe for concurrent Add, but concurrent Search on an index
// that is no longer being built is fine.
type Flat struct {
	dimension int
	vectors   [][]float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dimension int) (*Flat, error) {
	if dimension <= 0 {
		return nil, errors.New("invalid dimension")
	}
	return &Flat{dimension: dimension}, nil
}

// Dimension returns the vector dimension.
func (f *Flat) Dimension() int { return f.dimension }

// Len returns the index population.
func (f *Flat) Len() int { return len(f.vectors) }

// Add appends vectors. Either all are added or none.
func (f *Flat) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != f.dimension {
			return fmt.Errorf("vector %d: dimension %d, index expects %d", i, len(v), f.dimension)
		}
	}
	f.vectors = append(f.vectors, vectors...)
	return nil
}

// Vector returns the stored vector at position i.
func (f *Flat) Vector(i int) []float32 { return f.vectors[i] }

// Search returns up to topK hits ordered by ascending distance. Ties keep
// insertion order. topK larger than the population returns every vector.
func (f *Flat) Search(query []float32, topK int) ([]Hit, error) {
	if len(query) != f.dimension {
		return nil, fmt.Errorf("query dimension %d, index expects %d", len(query), f.dimension)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be >= 1, got %d", topK)
	}
	hits := make([]Hit, len(f.vectors))
	for i := range f.vectors {
		hits[i] = Hit{Position: i, Distance: squaredL2(f.vectors[i], query)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

func squaredL2(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
