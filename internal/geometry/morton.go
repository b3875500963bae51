package geometry

// ZOrder maps a linear index onto 2D grid coordinates along a Z-order
// (Morton) curve: the even bits of the index become x, the odd bits y.
// Consecutive indices land in the same quadrant before spilling into the
// next, which is what keeps neighbouring collection items spatially
// close on the composite canvas.
func ZOrder(index int) (x, y int) {
	for bit := 0; index>>(2*bit) != 0; bit++ {
		x |= (index >> (2 * bit)) & 1 << bit
		y |= (index >> (2*bit + 1)) & 1 << bit
	}
	return x, y
}

// ZOrderIndex is the inverse of ZOrder: it interleaves the bits of
// (x, y) back into a linear index.
func ZOrderIndex(x, y int) int {
	index := 0
	for bit := 0; x>>bit != 0 || y>>bit != 0; bit++ {
		index |= (x >> bit & 1) << (2 * bit)
		index |= (y >> bit & 1) << (2*bit + 1)
	}
	return index
}
