package render

// Plasma is a seed-free brightness field over frame time and a 2D position.
// It is a sum of sine waves at different spatial and temporal rates; each
// term's phase moves at most one step per frame, so the field drifts slowly.
func Plasma(frame uint64, x, y int) uint8 {
	t := frame
	xx, yy := uint8(x), uint8(y)

	a := uint16(Sin8(xx*9 + uint8(t>>2)))
	b := uint16(Cos8(yy*13 - uint8(t/3)))
	c := uint16(Sin8((xx+yy)*5 + uint8(t>>3)))
	// nested sine warps the phase of the last term
	d := uint16(Cos8(Sin8(xx*3+uint8(t>>4))/2 + yy*7))
	return uint8((a + b + c + d) / 4)
}
