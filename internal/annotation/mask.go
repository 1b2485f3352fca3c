package annotation

// Mask is a row-major 8-bit single-channel grid. Any non-zero cell is "on".
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates an all-zero mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// At returns the value at (x, y).
func (m *Mask) At(x, y int) uint8 {
	return m.Pix[y*m.Width+x]
}

// Set stores v at (x, y).
func (m *Mask) Set(x, y int, v uint8) {
	m.Pix[y*m.Width+x] = v
}

// FillRect sets every cell of the w×h block at (x, y) to v, clipped to the mask.
func (m *Mask) FillRect(x, y, w, h int, v uint8) {
	for yy := max(y, 0); yy < min(y+h, m.Height); yy++ {
		for xx := max(x, 0); xx < min(x+w, m.Width); xx++ {
			m.Pix[yy*m.Width+xx] = v
		}
	}
}

// CountNonZero returns the number of "on" cells.
func (m *Mask) CountNonZero() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}
