package evo

import (
	"math"
	"math/rand"
	"testing"

	"genetic/internal/codec"
	"genetic/internal/genotype"
	"genetic/internal/model"
)

type sliceGenes struct {
	p1, p2, c1, c2 []uint32
}

func newSliceGenes(p1, p2 []uint32) *sliceGenes {
	return &sliceGenes{
		p1: p1,
		p2: p2,
		c1: make([]uint32, len(p1)),
		c2: make([]uint32, len(p2)),
	}
}

func (s *sliceGenes) pair() genePair[uint32] {
	return genePair[uint32]{
		get1: func(i int) uint32 { return s.p1[i] },
		get2: func(i int) uint32 { return s.p2[i] },
		set1: func(i int, v uint32) { s.c1[i] = v },
		set2: func(i int, v uint32) { s.c2[i] = v },
	}
}

func bit(genes []uint32, nbits, pos int) uint32 {
	return (genes[pos/nbits] >> (pos % nbits)) & 1
}

func TestSinglePointReassemblesParentsAtCut(t *testing.T) {
	const (
		nbits  = 8
		length = 4
	)
	rng := rand.New(rand.NewSource(17))
	top := uint64(codec.MaxValue[uint32](nbits))
	for trial := 0; trial < 200; trial++ {
		p1 := make([]uint32, length)
		p2 := make([]uint32, length)
		for i := range p1 {
			p1[i] = uint32(rng.Uint64() & top)
			p2[i] = uint32(rng.Uint64() & top)
		}
		cut := rng.Intn(length * nbits)
		s := newSliceGenes(p1, p2)
		singlePointBitLevel(s.pair(), length, nbits, cut)

		for pos := 0; pos < length*nbits; pos++ {
			want1, want2 := bit(p1, nbits, pos), bit(p2, nbits, pos)
			if pos >= cut {
				want1, want2 = want2, want1
			}
			if got := bit(s.c1, nbits, pos); got != want1 {
				t.Fatalf("cut %d: child1 bit %d = %d, want %d", cut, pos, got, want1)
			}
			if got := bit(s.c2, nbits, pos); got != want2 {
				t.Fatalf("cut %d: child2 bit %d = %d, want %d", cut, pos, got, want2)
			}
		}
		for i := range s.c1 {
			if s.c1[i] > uint32(top) || s.c2[i] > uint32(top) {
				t.Fatalf("child gene exceeds bit width at %d", i)
			}
		}
	}
}

func TestSinglePointCutAtZeroSwapsEverything(t *testing.T) {
	s := newSliceGenes([]uint32{1, 2, 3}, []uint32{4, 5, 6})
	singlePointBitLevel(s.pair(), 3, 4, 0)
	for i := range s.c1 {
		if s.c1[i] != s.p2[i] || s.c2[i] != s.p1[i] {
			t.Fatalf("gene %d not swapped: %v %v", i, s.c1, s.c2)
		}
	}
}

func TestUniformExtremes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p1 := []uint32{0x0f, 0xa5, 0x3c}
	p2 := []uint32{0xf0, 0x5a, 0xc3}

	keep := newSliceGenes(p1, p2)
	uniformBitLevel(rng, keep.pair(), 3, 8, 1)
	swap := newSliceGenes(p1, p2)
	uniformBitLevel(rng, swap.pair(), 3, 8, 0)
	for i := range p1 {
		if keep.c1[i] != p1[i] || keep.c2[i] != p2[i] {
			t.Fatalf("keep probability 1 altered gene %d", i)
		}
		if swap.c1[i] != p2[i] || swap.c2[i] != p1[i] {
			t.Fatalf("keep probability 0 did not swap gene %d", i)
		}
	}
}

func TestUniformConservesBits(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	p1 := []uint32{0x0ff0, 0x1234, 0xffff}
	p2 := []uint32{0xf00f, 0xedcb, 0x0000}
	s := newSliceGenes(p1, p2)
	uniformBitLevel(rng, s.pair(), 3, 16, 0.5)
	for i := range p1 {
		// every bit position holds one bit of each parent across the two children
		if s.c1[i]^s.c2[i] != p1[i]^p2[i] || s.c1[i]&s.c2[i] != p1[i]&p2[i] {
			t.Fatalf("gene %d lost or duplicated bits", i)
		}
	}
}

func TestCrossoverInvalidatesAndCovers(t *testing.T) {
	cfg := smallConfig()
	cfg.EnableAutoAdaptation = true
	engine, err := New(cfg, Pure(sphere), FixedSeed(31))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	p1 := engine.population[0].Clone()
	p2 := p1.Clone()
	c1, c2 := engine.crossover(&p1, &p2)
	if c1.Evaluated() || c2.Evaluated() {
		t.Fatal("children must be unevaluated even when identical to parents")
	}
	if !c1.Equal(&p1) || !c2.Equal(&p2) {
		t.Fatal("crossover of identical parents must reproduce them")
	}
	if !p1.Evaluated() {
		t.Fatal("crossover must not touch parents")
	}
}

func TestCreateOffspringReplacesWholePopulation(t *testing.T) {
	cfg := smallConfig()
	engine, err := New(cfg, Pure(sphere), FixedSeed(41))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.selection(); err != nil {
		t.Fatalf("selection: %v", err)
	}
	parents := genotype.ClonePopulation(engine.selected)
	engine.createOffspring()
	if len(engine.population) != cfg.PopulationSize {
		t.Fatalf("population size changed: %d", len(engine.population))
	}
	for i := range engine.population {
		if engine.population[i].Evaluated() {
			t.Fatalf("slot %d still holds an evaluated individual", i)
		}
	}
	if len(engine.selected) != len(parents) {
		t.Fatal("parent buffer size changed")
	}
}

func TestSelectionDoesNotMutatePopulation(t *testing.T) {
	cfg := smallConfig()
	engine, err := New(cfg, Pure(sphere), FixedSeed(43))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	before := engine.Population()
	if err := engine.selection(); err != nil {
		t.Fatalf("selection: %v", err)
	}
	for i := range before {
		if !before[i].Equal(&engine.population[i]) {
			t.Fatalf("selection modified slot %d", i)
		}
	}

	engine.selected[0].SetGene(0, 0, engine.selected[0].Gene(0, 0)^1)
	for i := range before {
		if !before[i].Equal(&engine.population[i]) {
			t.Fatalf("selected parent aliases population slot %d", i)
		}
	}
}

func TestSelectionWinnerBeatsCandidates(t *testing.T) {
	cfg := smallConfig()
	cfg.TournamentSize = cfg.PopulationSize
	engine, err := New(cfg, Pure(sphere), FixedSeed(47))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	worst := 0.0
	for i, f := range engine.Fitnesses() {
		if i == 0 || f < worst {
			worst = f
		}
	}
	if err := engine.selection(); err != nil {
		t.Fatalf("selection: %v", err)
	}
	for i := range engine.selected {
		if engine.selected[i].Fitness() == worst {
			t.Fatalf("tournament of %d returned the worst individual", cfg.TournamentSize)
		}
	}
}

func TestTournamentOfOneKeepsDrawOrder(t *testing.T) {
	cfg := smallConfig()
	cfg.TournamentSize = 1
	engine, err := New(cfg, Pure(sphere), FixedSeed(53))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	replay := rand.New(rand.NewSource(53))
	for i := 0; i < cfg.PopulationSize; i++ {
		genotype.Random(cfg, replay)
	}
	if err := engine.selection(); err != nil {
		t.Fatalf("selection: %v", err)
	}
	for i := range engine.selected {
		idx := replay.Intn(cfg.PopulationSize)
		if !engine.selected[i].Equal(&engine.population[idx]) {
			t.Fatalf("parent %d is not population slot %d", i, idx)
		}
	}
}

func TestBetterRanksNaNLast(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		candidate, current float64
		want               bool
	}{
		{2, 1, true},
		{1, 1, false},
		{1, 2, false},
		{1, nan, true},
		{math.Inf(-1), nan, true},
		{nan, 1, false},
		{nan, nan, false},
	}
	for _, tc := range cases {
		if got := better(tc.candidate, tc.current); got != tc.want {
			t.Fatalf("better(%v, %v): got %v want %v", tc.candidate, tc.current, got, tc.want)
		}
	}
}

func TestTournamentNaNLosesToAnyNumber(t *testing.T) {
	cfg := model.DefaultConfig[float64, uint32]()
	cfg.PopulationSize = 4
	cfg.TournamentSize = 4
	cfg.NumberOfVectors = 1
	cfg.Dimension = 1
	cfg.IntegerBits = 8

	engine, err := New(cfg, Pure(func(v [][]float64) float64 { return v[0][0] }), FixedSeed(11))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	engine.population[0].SetFitness(math.NaN())
	for i := 1; i < len(engine.population); i++ {
		engine.population[i].SetFitness(float64(i))
	}

	const rounds = 1000
	nanWins, total := 0, 0
	for r := 0; r < rounds; r++ {
		if err := engine.selection(); err != nil {
			t.Fatalf("selection: %v", err)
		}
		for i := range engine.selected {
			total++
			if math.IsNaN(engine.selected[i].Fitness()) {
				nanWins++
			}
		}
	}
	// NaN may only win a tournament in which every draw was slot 0,
	// which happens once in 4^4 tournaments on average.
	if nanWins*256 > total*4 {
		t.Fatalf("NaN won %d of %d tournaments", nanWins, total)
	}
}
