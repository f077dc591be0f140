package fuzzbytes

// String decodes one length-prefixed string. The length byte is mapped into
// [minLen, maxLen] and then up to that many payload bytes follow; when the
// input ends early the string is simply shorter. It reports false only when
// not even the length byte was available.
func (c *Cursor) String(minLen, maxLen int) (string, bool) {
	b, ok := c.Byte()
	if !ok {
		return "", false
	}
	n := SelectRange(b, minLen, maxLen)
	if n > c.Remaining() {
		n = c.Remaining()
	}
	if n <= 0 {
		return "", true
	}
	s, _ := c.take(n)
	return string(s), true
}

// Strings decodes n length-prefixed strings. Elements with no length byte
// left take def.
func (c *Cursor) Strings(n, minLen, maxLen int, def string) []string {
	if n < 0 {
		n = 0
	}
	out := make([]string, n)
	for i := range out {
		s, ok := c.String(minLen, maxLen)
		if !ok {
			s = def
		}
		out[i] = s
	}
	return out
}

// ASCII folds every byte of s into 7 bits.
func ASCII(s string) string {
	b := []byte(s)
	for i := range b {
		b[i] %= 128
	}
	return string(b)
}
