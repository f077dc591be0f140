package fuzzbytes

// SelectEnum maps a selector byte onto one of n choices: b mod n.
// n < 1 is treated as a single choice.
func SelectEnum(b byte, n int) int {
	if n <= 1 {
		return 0
	}
	return int(b) % n
}

// SelectRange maps a byte into [min, max]: min + b mod (max-min+1).
// When max < min the result is min.
func SelectRange(b byte, min, max int) int {
	if max <= min {
		return min
	}
	return min + int(b)%(max-min+1)
}

// Enum reads a selector byte and maps it onto n choices. On starvation it
// returns def.
func (c *Cursor) Enum(n, def int) int {
	b, ok := c.Byte()
	if !ok {
		return def
	}
	return SelectEnum(b, n)
}

// Range reads one byte and maps it into [min, max]. On starvation it returns
// min.
func (c *Cursor) Range(min, max int) int {
	b, ok := c.Byte()
	if !ok {
		return min
	}
	return SelectRange(b, min, max)
}

// Rank is Range under the name the tensor harnesses use for it.
func (c *Cursor) Rank(minRank, maxRank int) int {
	return c.Range(minRank, maxRank)
}

// Bool reads one byte and reports whether it is odd. On starvation it returns
// def.
func (c *Cursor) Bool(def bool) bool {
	b, ok := c.Byte()
	if !ok {
		return def
	}
	return b%2 == 1
}

// Unit reads one byte scaled into [0, 1] (b / 255). On starvation it returns
// def.
func (c *Cursor) Unit(def float64) float64 {
	b, ok := c.Byte()
	if !ok {
		return def
	}
	return float64(b) / 255.0
}
