package noise

import (
	"math"
	"testing"
)

func TestSource_Reproducible(t *testing.T) {
	a := NewSource(50)
	b := NewSource(50)

	for i := 0; i < 100; i++ {
		if got, want := a.Normal(0, 1), b.Normal(0, 1); got != want {
			t.Fatalf("draw %d: sources with equal seeds diverged: %v != %v", i, got, want)
		}
	}
}

func TestSource_SeedChangesSequence(t *testing.T) {
	a := NewSource(1)
	b := NewSource(2)

	same := true
	for i := 0; i < 10; i++ {
		if a.Normal(0, 1) != b.Normal(0, 1) {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical sequences")
	}
}

func TestNormal_MeanAndSpread(t *testing.T) {
	s := NewSource(7)
	const n = 20000
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		x := s.Normal(5, 2)
		sum += x
		sumSq += x * x
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	if math.Abs(mean-5) > 0.1 {
		t.Errorf("sample mean = %v, want ~5", mean)
	}
	if math.Abs(math.Sqrt(variance)-2) > 0.1 {
		t.Errorf("sample stddev = %v, want ~2", math.Sqrt(variance))
	}
}

func TestUniform_Range(t *testing.T) {
	s := NewSource(3)
	for i := 0; i < 1000; i++ {
		x := s.Uniform(-2, 4)
		if x < -2 || x >= 4 {
			t.Fatalf("Uniform(-2, 4) = %v out of range", x)
		}
	}
}
