package bytes

// StripPadding returns a slice of b without the trailing 0s.
func StripPadding(b []byte) []byte {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0 {
			return b[:i+1]
		}
	}
	return []byte{}
}

// Reverse reverses the order of the bytes in b in place and returns it.
func Reverse(b []byte) []byte {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// Reversed returns a reversed copy of b, leaving b untouched.
func Reversed(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return Reverse(c)
}
