package crypto

const alphabetSize = 26

// CaesarEncode rotates every ASCII letter in text by shift positions,
// keeping case. Anything that is not an ASCII letter is copied unchanged.
// This is obfuscation, not encryption.
func CaesarEncode(text string, shift int) string {
	shift = normalizeShift(shift)
	if shift == 0 {
		return text
	}
	out := []rune(text)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z':
			out[i] = 'a' + (r-'a'+rune(shift))%alphabetSize
		case r >= 'A' && r <= 'Z':
			out[i] = 'A' + (r-'A'+rune(shift))%alphabetSize
		}
	}
	return string(out)
}

// CaesarDecode reverses CaesarEncode for the same shift.
func CaesarDecode(text string, shift int) string {
	return CaesarEncode(text, -shift)
}

func normalizeShift(shift int) int {
	shift %= alphabetSize
	if shift < 0 {
		shift += alphabetSize
	}
	return shift
}
