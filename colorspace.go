package minpal

import (
	"math"

	"github.com/setanarut/minpal/quant"
)

// Lab holds CIE L*a*b* coordinates under the D65 white point. Lab values
// exist only for distance comparison and are never converted back to RGBA.
type Lab struct {
	L, A, B float64
}

// srgbToLinear inverts the sRGB transfer function (IEC 61966-2-1).
func srgbToLinear(u float64) float64 {
	if u > 0.04045 {
		return math.Pow((u+0.055)/1.055, 2.4)
	}
	return u / 12.92
}

// labF is the CIE Lab piecewise nonlinearity (epsilon, kappa constants).
func labF(t float64) float64 {
	if t > 0.008856 {
		return math.Cbrt(t)
	}
	return (903.3*t + 16.0) / 116.0
}

// LabFromColor converts an 8-bit RGBA color to Lab. Alpha is not part of
// the Lab coordinate; the remap policies that care about it compare alpha
// separately.
func LabFromColor(c quant.Color) Lab {
	r := srgbToLinear(float64(c.R) / 255.0)
	g := srgbToLinear(float64(c.G) / 255.0)
	b := srgbToLinear(float64(c.B) / 255.0)

	// sRGB -> XYZ under D65, normalized by the D65 white point.
	x := (0.4124564*r + 0.3575761*g + 0.1804375*b) / 0.95047
	y := 0.2126729*r + 0.7151522*g + 0.0721750*b
	z := (0.0193339*r + 0.1191920*g + 0.9503041*b) / 1.08883

	fx := labF(x)
	fy := labF(y)
	fz := labF(z)
	return Lab{
		L: 116.0*fy - 16.0,
		A: 500.0 * (fx - fy),
		B: 200.0 * (fy - fz),
	}
}

// DeltaE returns the CIE76 color difference: the Euclidean distance
// between two Lab coordinates.
func DeltaE(a, b Lab) float64 {
	dl := a.L - b.L
	da := a.A - b.A
	db := a.B - b.B
	return math.Sqrt(dl*dl + da*da + db*db)
}
