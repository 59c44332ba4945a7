// Package objective provides named benchmark fitness functions. Every
// function is phrased for maximization: minimization problems are negated.
package objective

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	ErrObjectiveExists   = errors.New("objective already registered")
	ErrObjectiveNotFound = errors.New("objective not found")
)

// Objective scores decoded vectors. Fitness receives exactly V vectors of D values.
type Objective struct {
	Name        string
	Description string
	// Suggested search range; zero values leave the run config untouched.
	MinReal float64
	MaxReal float64
	// MinDimension is the smallest dimension the function is defined for.
	MinDimension int
	Fitness      func(vectors [][]float64) float64
}

var registry = struct {
	mu sync.RWMutex
	m  map[string]Objective
}{
	m: make(map[string]Objective),
}

func Register(o Objective) error {
	if o.Name == "" {
		return errors.New("objective name is required")
	}
	if o.Fitness == nil {
		return errors.New("objective fitness function is required")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.m[o.Name]; exists {
		return fmt.Errorf("%w: %s", ErrObjectiveExists, o.Name)
	}
	registry.m[o.Name] = o
	return nil
}

func Get(name string) (Objective, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	o, ok := registry.m[name]
	if !ok {
		return Objective{}, fmt.Errorf("%w: %s", ErrObjectiveNotFound, name)
	}
	return o, nil
}

// List returns registered objectives sorted by name.
func List() []Objective {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	out := make([]Objective, 0, len(registry.m))
	for _, o := range registry.m {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

func init() {
	for _, o := range builtins() {
		if err := Register(o); err != nil {
			panic(err)
		}
	}
}

func builtins() []Objective {
	return []Objective{
		{
			Name:        "sphere",
			Description: "negated sum of squares, optimum 0 at the origin",
			MinReal:     -5.12, MaxReal: 5.12,
			MinDimension: 1,
			Fitness: func(vectors [][]float64) float64 {
				return -sumOver(vectors, func(x float64) float64 { return x * x })
			},
		},
		{
			Name:        "rastrigin",
			Description: "negated Rastrigin function, optimum 0 at the origin",
			MinReal:     -5.12, MaxReal: 5.12,
			MinDimension: 1,
			Fitness: func(vectors [][]float64) float64 {
				n := 0
				sum := sumOver(vectors, func(x float64) float64 {
					n++
					return x*x - 10*math.Cos(2*math.Pi*x)
				})
				return -(10*float64(n) + sum)
			},
		},
		{
			Name:        "rosenbrock",
			Description: "negated Rosenbrock function over the first two values, optimum 0 at (1, 1)",
			MinReal:     -5, MaxReal: 5,
			MinDimension: 2,
			Fitness: func(vectors [][]float64) float64 {
				x, y := vectors[0][0], vectors[0][1]
				return -((1-x)*(1-x) + 100*(y-x*x)*(y-x*x))
			},
		},
		{
			Name:        "ackley",
			Description: "negated Ackley function, optimum 0 at the origin",
			MinReal:     -32.768, MaxReal: 32.768,
			MinDimension: 1,
			Fitness: func(vectors [][]float64) float64 {
				n := 0.0
				squares, cosines := 0.0, 0.0
				for _, v := range vectors {
					for _, x := range v {
						n++
						squares += x * x
						cosines += math.Cos(2 * math.Pi * x)
					}
				}
				value := -20*math.Exp(-0.2*math.Sqrt(squares/n)) - math.Exp(cosines/n) + 20 + math.E
				return -value
			},
		},
		{
			Name:        "sum-squared",
			Description: "negated square of the sum of all values",
			MinReal:     -1000, MaxReal: 1000,
			MinDimension: 1,
			Fitness: func(vectors [][]float64) float64 {
				s := sumOver(vectors, func(x float64) float64 { return x })
				return -(s * s)
			},
		},
		{
			Name:         "abs-sum",
			Description:  "sum of absolute values",
			MinDimension: 1,
			Fitness: func(vectors [][]float64) float64 {
				return sumOver(vectors, math.Abs)
			},
		},
		{
			Name:         "linear-sum",
			Description:  "sum of all values",
			MinDimension: 1,
			Fitness: func(vectors [][]float64) float64 {
				return sumOver(vectors, func(x float64) float64 { return x })
			},
		},
		{
			Name:         "identity",
			Description:  "first value of the first vector",
			MinDimension: 1,
			Fitness: func(vectors [][]float64) float64 {
				return vectors[0][0]
			},
		},
	}
}

func sumOver(vectors [][]float64, f func(float64) float64) float64 {
	sum := 0.0
	for _, v := range vectors {
		for _, x := range v {
			sum += f(x)
		}
	}
	return sum
}
