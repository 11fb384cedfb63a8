package views

import "strings"

// sanitizeForTerminal strips codepoints that tcell renders with the wrong
// cell width: emoji skin tone modifiers, zero-width joiners and variation
// selectors. Lead names and message bodies pasted from phones carry these
// routinely; without stripping they smear the table layout.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0x1F3FB && r <= 0x1F3FF: // skin tone modifiers
			return -1
		case r == 0x200D: // zero-width joiner
			return -1
		case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
			return -1
		case r >= 0xE0100 && r <= 0xE01EF: // variation selectors supplement
			return -1
		}
		return r
	}, s)
}
