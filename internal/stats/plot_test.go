package stats

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFitnessPlot(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"fitness.png", "nested/fitness.svg"} {
		path := filepath.Join(dir, name)
		if err := WriteFitnessPlot(path, "sphere", []float64{-3, -2, math.Inf(-1), -1}, []float64{-6, -4, -3, -2}); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected non-empty %s", name)
		}
	}
}

func TestWriteFitnessPlotRejectsEmptySeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fitness.png")
	if err := WriteFitnessPlot(path, "empty", nil, nil); err == nil {
		t.Fatal("expected empty series error")
	}
	if err := WriteFitnessPlot(path, "nan", []float64{math.NaN()}, nil); err == nil {
		t.Fatal("expected non-finite series error")
	}
}
