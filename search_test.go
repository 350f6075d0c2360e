package minpal

import (
	"errors"
	"math"
	"testing"

	"github.com/setanarut/minpal/quant"
)

func solidImage(c quant.Color, w, h int) []quant.Color {
	pixels := make([]quant.Color, w*h)
	for i := range pixels {
		pixels[i] = c
	}
	return pixels
}

func TestSearchFourColorsLosslessBudget(t *testing.T) {
	pixels := []quant.Color{
		{R: 255, G: 0, B: 0, A: 255},
		{R: 0, G: 255, B: 0, A: 255},
		{R: 0, G: 0, B: 255, A: 255},
		{R: 255, G: 255, B: 255, A: 255},
	}
	s, err := NewSearcher(0, quant.OptimizerKMeans, quant.DithererFloydSteinberg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(pixels, 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Size != 4 {
		t.Errorf("Size = %d, want 4 (the true distinct-color count)", res.Size)
	}
	if res.DeltaE != 0 {
		t.Errorf("DeltaE = %v, want 0", res.DeltaE)
	}
	for i := range pixels {
		if res.Pixels[i] != pixels[i] {
			t.Fatalf("pixel %d changed: %v -> %v", i, pixels[i], res.Pixels[i])
		}
	}
}

func TestSearchSingleColor(t *testing.T) {
	pixels := solidImage(quant.Color{R: 40, G: 90, B: 160, A: 255}, 100, 100)
	for _, budget := range []float64{0, 2.5, 1000} {
		s, err := NewSearcher(budget, quant.OptimizerKMeans, quant.DithererNone)
		if err != nil {
			t.Fatal(err)
		}
		res, err := s.Run(pixels, 100)
		if err != nil {
			t.Fatal(err)
		}
		if res.Size != 1 {
			t.Errorf("budget %v: Size = %d, want 1", budget, res.Size)
		}
		if res.DeltaE != 0 {
			t.Errorf("budget %v: DeltaE = %v, want 0", budget, res.DeltaE)
		}
	}
}

// With a dominant color on 99% of pixels and one very different rare
// color, a budget between the two error levels must force the rare color
// into the palette: the grouped metric gives it a full vote.
func TestSearchDominantPlusRare(t *testing.T) {
	red := quant.Color{R: 255, G: 0, B: 0, A: 255}
	blue := quant.Color{R: 0, G: 0, B: 255, A: 255}
	pixels := solidImage(red, 10, 10)
	pixels[57] = blue

	s, err := NewSearcher(10, quant.OptimizerKMeans, quant.DithererNone)
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(pixels, 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Size != 2 {
		t.Errorf("Size = %d, want 2 (rare color must not be diluted away)", res.Size)
	}
	if res.DeltaE > 10 {
		t.Errorf("DeltaE = %v exceeds the budget", res.DeltaE)
	}
}

func TestSearchHugeBudgetCollapsesToOne(t *testing.T) {
	pixels := make([]quant.Color, 16*16)
	for i := range pixels {
		pixels[i] = quant.Color{R: uint8(i), G: uint8(255 - i), B: uint8(i * 3), A: 255}
	}
	s, err := NewSearcher(1e6, quant.OptimizerKMeans, quant.DithererNone)
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(pixels, 16)
	if err != nil {
		t.Fatal(err)
	}
	if res.Size != 1 {
		t.Errorf("Size = %d, want 1 under an unbounded budget", res.Size)
	}
}

func TestSearchSizeAlwaysInRange(t *testing.T) {
	pixels := make([]quant.Color, 32*32)
	for i := range pixels {
		pixels[i] = quant.Color{R: uint8(i * 7), G: uint8(i * 13), B: uint8(i * 29), A: 255}
	}
	for _, budget := range []float64{0.5, 4, 25} {
		s, err := NewSearcher(budget, quant.OptimizerKMeans, quant.DithererNone)
		if err != nil {
			t.Fatal(err)
		}
		res, err := s.Run(pixels, 32)
		if err != nil {
			t.Fatal(err)
		}
		if res.Size < 1 || res.Size > quant.MaxPaletteSize {
			t.Errorf("budget %v: Size = %d outside [1, %d]", budget, res.Size, quant.MaxPaletteSize)
		}
		if res.Steps < 1 {
			t.Errorf("budget %v: Steps = %d, want at least the probe", budget, res.Steps)
		}
		if len(res.Index) != len(pixels) {
			t.Errorf("budget %v: index length %d, want %d", budget, len(res.Index), len(pixels))
		}
		for i, x := range res.Index {
			if int(x) >= len(res.Palette) {
				t.Fatalf("budget %v: index[%d] = %d outside palette of %d", budget, i, x, len(res.Palette))
			}
		}
	}
}

func TestSearchEmptyImage(t *testing.T) {
	s, err := NewSearcher(2, quant.OptimizerKMeans, quant.DithererNone)
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Size != 0 || len(res.Pixels) != 0 {
		t.Errorf("empty image gave Size %d, %d pixels", res.Size, len(res.Pixels))
	}
}

func TestNewSearcherRejectsBadBudget(t *testing.T) {
	for _, budget := range []float64{math.NaN(), math.Inf(1), -1} {
		if _, err := NewSearcher(budget, quant.OptimizerKMeans, quant.DithererNone); !errors.Is(err, ErrValidation) {
			t.Errorf("budget %v: err = %v, want ErrValidation", budget, err)
		}
	}
}
