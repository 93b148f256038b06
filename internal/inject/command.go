package inject

import "strings"

// enterCommandPhrases are the trailing voice commands that request an Enter
// keystroke. Only full "and/then" + "enter/return" phrases qualify, plus
// common engine misrecognitions of them.
var enterCommandPhrases = []string{
	"and press enter",
	"and hit enter",
	"and press return",
	"and hit return",
	"then press enter",
	"then hit enter",
	// frequent misrecognitions, still with the and/then prefix
	"and present enter",
	"and presence enter",
	"and pressing enter",
	"and president enter",
	"then present enter",
	"then pressing enter",
}

// DetectEnterCommand checks whether the transcription ends with an enter
// voice command, ignoring case and trailing punctuation. It returns the text
// with the command stripped and whether one was found.
func DetectEnterCommand(text string) (cleaned string, pressEnter bool) {
	trimmed := strings.TrimRight(text, ".!?,; ")

	for _, phrase := range enterCommandPhrases {
		if len(trimmed) < len(phrase) {
			continue
		}
		idx := len(trimmed) - len(phrase)
		if !strings.EqualFold(trimmed[idx:], phrase) {
			continue
		}
		// The phrase must start at a word boundary: "grand press enter"
		// is not a command.
		if idx > 0 && trimmed[idx-1] != ' ' {
			continue
		}
		cleaned = strings.TrimRight(trimmed[:idx], " ")
		return cleaned, true
	}

	return text, false
}
