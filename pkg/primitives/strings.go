package primitives

// TrimmedLength returns the length of buf[:length] after stripping trailing
// occurrences of trimByte. If keepOne is true and at least one trimByte was
// stripped, one trailing trimByte is left in place (used by fields whose
// trailing pad byte doubles as a terminator some callers want to see).
func TrimmedLength(buf []byte, length int, trimByte byte, keepOne bool) int {
	if length > len(buf) {
		length = len(buf)
	}
	n := length
	for n > 0 && buf[n-1] == trimByte {
		n--
	}
	if keepOne && n < length {
		n++
	}
	return n
}

// TrimTrailing returns buf[:length] with trailing trimByte occurrences
// removed, honoring keepOne the same way TrimmedLength does.
func TrimTrailing(buf []byte, length int, trimByte byte, keepOne bool) []byte {
	return buf[:TrimmedLength(buf, length, trimByte, keepOne)]
}
