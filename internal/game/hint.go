package game

import "strings"

// Hint marks, one per guess position
const (
	MarkExact   = '+'
	MarkPresent = '?'
	MarkAbsent  = 'X'
)

// Hint classifies a guess against the secret, position by position: an exact
// match, a letter present anywhere in the secret, or an absent letter.
//
// The presence check is whole-word containment per character, so a letter
// repeated in the guess can earn more '?' marks than the secret has copies
// of it. Clients render stored hint history under this rule; keep it.
func Hint(secret, guess string) string {
	hint := make([]byte, len(guess))
	for i := 0; i < len(guess); i++ {
		switch {
		case i < len(secret) && guess[i] == secret[i]:
			hint[i] = MarkExact
		case strings.ContainsRune(secret, rune(guess[i])):
			hint[i] = MarkPresent
		default:
			hint[i] = MarkAbsent
		}
	}
	return string(hint)
}
