package array

import "github.com/cwbudde/algo-vecmath"

// Add computes dst = a + b element-wise. All three grids must share shape.
func Add(dst, a, b Real) {
	vecmath.AddBlock(dst.Data, a.Data, b.Data)
}

// AddInPlace computes dst += src element-wise.
func AddInPlace(dst, src Real) {
	vecmath.AddBlockInPlace(dst.Data, src.Data)
}

// Scale computes dst = src * s element-wise.
func Scale(dst, src Real, s float64) {
	vecmath.ScaleBlock(dst.Data, src.Data, s)
}

// ScaleInPlace computes dst *= s element-wise.
func ScaleInPlace(dst Real, s float64) {
	vecmath.ScaleBlockInPlace(dst.Data, s)
}

// MaxAbs returns max(|a[i]|) over the whole grid.
func MaxAbs(a Real) float64 {
	return vecmath.MaxAbs(a.Data)
}

// Sum returns the sum of all elements.
func Sum(a Real) float64 {
	return vecmath.Sum(a.Data)
}

// L1Norm returns sum(|a[i]|).
func L1Norm(a Real) float64 {
	sum := 0.0
	for _, v := range a.Data {
		if v < 0 {
			sum -= v
		} else {
			sum += v
		}
	}
	return sum
}

// Sub computes dst = a - b element-wise.
func Sub(dst, a, b Real) {
	negB := make([]float64, len(b.Data))
	vecmath.ScaleBlock(negB, b.Data, -1)
	vecmath.AddBlock(dst.Data, a.Data, negB)
}
