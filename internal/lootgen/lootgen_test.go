package lootgen

import (
	"testing"
	"time"
)

func TestGenerateNoLooterDeficitYieldsZero(t *testing.T) {
	g := New(time.Second, 1)
	if n := g.Generate(time.Second, 5, 5); n != 0 {
		t.Errorf("Generate with no deficit = %d, want 0", n)
	}
	if n := g.Generate(time.Second, 10, 5); n != 0 {
		t.Errorf("Generate with surplus loot = %d, want 0", n)
	}
}

func TestGenerateZeroPeriodYieldsZero(t *testing.T) {
	g := New(0, 1)
	if n := g.Generate(time.Second, 0, 5); n != 0 {
		t.Errorf("Generate with zero period = %d, want 0", n)
	}
}

func TestGenerateProbabilityOneFillsDeficitOverOnePeriod(t *testing.T) {
	g := New(time.Second, 1)
	n := g.Generate(time.Second, 0, 3)
	if n != 3 {
		t.Errorf("Generate(full period, probability 1) = %d, want 3", n)
	}
}

func TestGenerateClampsProbability(t *testing.T) {
	over := New(time.Second, 5)
	under := New(time.Second, -1)

	n := over.Generate(time.Second, 0, 4)
	if n != 4 {
		t.Errorf("Generate with probability>1 clamped = %d, want 4", n)
	}
	if n := under.Generate(time.Second, 0, 4); n != 0 {
		t.Errorf("Generate with probability<0 clamped = %d, want 0", n)
	}
}

func TestGenerateFractionOfPeriodYieldsFewerItems(t *testing.T) {
	// Probability 1 fills the whole deficit after any positive fraction of
	// a period, so a probability below 1 is needed to see the difference.
	g := New(10*time.Second, 0.5)
	full := g.Generate(10*time.Second, 0, 10)
	partial := g.Generate(1*time.Second, 0, 10)
	if partial >= full {
		t.Errorf("Generate(1/10 period) = %d, want strictly fewer than full period's %d", partial, full)
	}
}
