// Package sms handles outbound message encoding and segmentation for
// the narrowest transport alphabet (GSM 03.38).
package sms

// substitute replaces every code point outside the GSM-7 repertoire.
const substitute = '?'

// gsm7Basic is the GSM 03.38 default alphabet.
var gsm7Basic = map[rune]struct{}{
	'@': {}, '£': {}, '$': {}, '¥': {}, 'è': {}, 'é': {}, 'ù': {}, 'ì': {},
	'ò': {}, 'Ç': {}, '\n': {}, 'Ø': {}, 'ø': {}, '\r': {}, 'Å': {}, 'å': {},
	'Δ': {}, '_': {}, 'Φ': {}, 'Γ': {}, 'Λ': {}, 'Ω': {}, 'Π': {}, 'Ψ': {},
	'Σ': {}, 'Θ': {}, 'Ξ': {}, 'Æ': {}, 'æ': {}, 'ß': {}, 'É': {}, ' ': {},
	'!': {}, '"': {}, '#': {}, '¤': {}, '%': {}, '&': {}, '\'': {}, '(': {},
	')': {}, '*': {}, '+': {}, ',': {}, '-': {}, '.': {}, '/': {}, '0': {},
	'1': {}, '2': {}, '3': {}, '4': {}, '5': {}, '6': {}, '7': {}, '8': {},
	'9': {}, ':': {}, ';': {}, '<': {}, '=': {}, '>': {}, '?': {}, '¡': {},
	'A': {}, 'B': {}, 'C': {}, 'D': {}, 'E': {}, 'F': {}, 'G': {}, 'H': {},
	'I': {}, 'J': {}, 'K': {}, 'L': {}, 'M': {}, 'N': {}, 'O': {}, 'P': {},
	'Q': {}, 'R': {}, 'S': {}, 'T': {}, 'U': {}, 'V': {}, 'W': {}, 'X': {},
	'Y': {}, 'Z': {}, 'Ä': {}, 'Ö': {}, 'Ñ': {}, 'Ü': {}, '§': {}, '¿': {},
	'a': {}, 'b': {}, 'c': {}, 'd': {}, 'e': {}, 'f': {}, 'g': {}, 'h': {},
	'i': {}, 'j': {}, 'k': {}, 'l': {}, 'm': {}, 'n': {}, 'o': {}, 'p': {},
	'q': {}, 'r': {}, 's': {}, 't': {}, 'u': {}, 'v': {}, 'w': {}, 'x': {},
	'y': {}, 'z': {}, 'ä': {}, 'ö': {}, 'ñ': {}, 'ü': {}, 'à': {},
}

// gsm7Extension holds the escape-table characters. They cost two septets
// on the wire but count as single code points here.
var gsm7Extension = map[rune]struct{}{
	'^': {}, '{': {}, '}': {}, '\\': {}, '[': {}, ']': {}, '~': {}, '|': {}, '€': {},
	'\f': {},
}

func isGSM7Rune(r rune) bool {
	if _, ok := gsm7Basic[r]; ok {
		return true
	}
	_, ok := gsm7Extension[r]
	return ok
}

// IsGSM7 reports whether every code point in text belongs to the GSM-7
// repertoire.
func IsGSM7(text string) bool {
	for _, r := range text {
		if !isGSM7Rune(r) {
			return false
		}
	}
	return true
}

// ToGSM7 replaces each unsupported code point with a placeholder. The
// substitution is deterministic and preserves the code-point length.
func ToGSM7(text string) string {
	if IsGSM7(text) {
		return text
	}

	runes := []rune(text)
	for i, r := range runes {
		if !isGSM7Rune(r) {
			runes[i] = substitute
		}
	}
	return string(runes)
}
