package minpal

import (
	"errors"
	"math"
	"testing"

	"github.com/setanarut/minpal/quant"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		ok     bool
	}{
		{"defaults", func(o *Options) {}, true},
		{"nan budget", func(o *Options) { o.MaxDeltaE = math.NaN() }, false},
		{"negative budget", func(o *Options) { o.MaxDeltaE = -0.5 }, false},
		{"infinite budget", func(o *Options) { o.MaxDeltaE = math.Inf(1) }, false},
		{"fraction below range", func(o *Options) { o.LossyFraction = -0.1 }, false},
		{"fraction above range", func(o *Options) { o.LossyFraction = 1.01 }, false},
		{"nan fraction", func(o *Options) { o.LossyFraction = math.NaN() }, false},
		{"bad mode", func(o *Options) { o.Mode = Mode(42) }, false},
		{"coverage", func(o *Options) { o.Mode = ModeCoverage; o.LossyFraction = 0.3 }, true},
		{"prune", func(o *Options) { o.Mode = ModePrune; o.MaxDeltaE = 5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			err := o.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() = %v, want ErrValidation", err)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for name, want := range map[string]Mode{
		"bisect":   ModeBisect,
		"search":   ModeBisect,
		"Coverage": ModeCoverage,
		"prune":    ModePrune,
	} {
		got, err := ParseMode(name)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := ParseMode("octree"); !errors.Is(err, ErrValidation) {
		t.Errorf("ParseMode(octree) = %v, want ErrValidation", err)
	}
}

func TestPreprocessLosslessPassthrough(t *testing.T) {
	pixels := []quant.Color{{R: 1, G: 2, B: 3, A: 255}, {R: 4, G: 5, B: 6, A: 255}}
	res, err := Preprocess(pixels, 2, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if &res.Pixels[0] != &pixels[0] {
		t.Error("zero budget should pass the input buffer through unchanged")
	}
	if res.Palette != nil || res.Size != 0 {
		t.Errorf("passthrough produced a palette: %v (size %d)", res.Palette, res.Size)
	}
}

// threeColorImage has A on 90%, B on 9% and C (close to B) on 1% of the
// pixels, laid out in 10 rows of 10.
func threeColorImage() ([]quant.Color, quant.Color, quant.Color, quant.Color) {
	a := quant.Color{R: 255, G: 0, B: 0, A: 255}
	b := quant.Color{R: 0, G: 0, B: 255, A: 255}
	c := quant.Color{R: 40, G: 40, B: 255, A: 255}
	pixels := make([]quant.Color, 100)
	for i := range pixels {
		switch {
		case i < 90:
			pixels[i] = a
		case i < 99:
			pixels[i] = b
		default:
			pixels[i] = c
		}
	}
	return pixels, a, b, c
}

func TestPreprocessCoverage(t *testing.T) {
	pixels, a, b, _ := threeColorImage()
	opts := DefaultOptions()
	opts.Mode = ModeCoverage
	opts.LossyFraction = 0.05

	res, err := Preprocess(pixels, 10, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Size != 2 {
		t.Fatalf("Size = %d, want 2", res.Size)
	}
	for i, p := range res.Pixels {
		if p != a && p != b {
			t.Fatalf("pixel %d = %v, want one of the two kept colors", i, p)
		}
	}
}

func TestPreprocessPrune(t *testing.T) {
	pixels, _, _, _ := threeColorImage()

	opts := DefaultOptions()
	opts.Mode = ModePrune
	opts.MaxDeltaE = 0
	res, err := Preprocess(pixels, 10, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Size != 3 {
		t.Errorf("zero budget: Size = %d, want all 3 colors", res.Size)
	}
	for i, p := range res.Pixels {
		if p != pixels[i] {
			t.Fatalf("zero budget changed pixel %d", i)
		}
	}

	opts.MaxDeltaE = 1e6
	res, err = Preprocess(pixels, 10, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Size != 1 {
		t.Errorf("unbounded budget: Size = %d, want 1", res.Size)
	}
}

func TestPreprocessRejectsInvalid(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDeltaE = -2
	if _, err := Preprocess([]quant.Color{{R: 0, G: 0, B: 0, A: 255}}, 1, opts); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestPreprocessEmpty(t *testing.T) {
	res, err := Preprocess(nil, 0, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pixels) != 0 {
		t.Errorf("empty input produced %d pixels", len(res.Pixels))
	}
}
