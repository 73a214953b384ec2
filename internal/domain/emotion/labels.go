package emotion

import "strings"

// Labels is the fixed vocabulary, ordered to match the reference dataset's
// class indices.
var Labels = []string{"sadness", "joy", "love", "anger", "fear", "surprise"}

// Unresolved is the distinguished "no valid label" outcome. It is not an
// error: a classification can complete without yielding a usable label.
const Unresolved = ""

var labelSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Labels))
	for _, label := range Labels {
		set[label] = struct{}{}
	}
	return set
}()

var synonyms = map[string]string{
	"happy":      "joy",
	"happiness":  "joy",
	"joyful":     "joy",
	"ecstatic":   "joy",
	"sad":        "sadness",
	"depressed":  "sadness",
	"angry":      "anger",
	"mad":        "anger",
	"furious":    "anger",
	"afraid":     "fear",
	"scared":     "fear",
	"fearful":    "fear",
	"terrified":  "fear",
	"surprised":  "surprise",
	"shocked":    "surprise",
	"astonished": "surprise",
	"love":       "love",
	"loved":      "love",
	"loving":     "love",
}

// IsCanonical reports whether label is one of the six allowed labels.
func IsCanonical(label string) bool {
	_, ok := labelSet[label]
	return ok
}

// Normalize cleans raw model output down to a label candidate. Everything
// except letters and spaces is stripped, the first token is kept, and known
// synonyms are folded into their canonical label. Unknown tokens pass
// through verbatim; callers must treat anything outside the six-label set
// as unresolved.
func Normalize(raw string) string {
	var builder strings.Builder
	builder.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r == ' ':
			builder.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			builder.WriteRune(r + ('a' - 'A'))
		default:
			builder.WriteRune(' ')
		}
	}

	fields := strings.Fields(builder.String())
	if len(fields) == 0 {
		return Unresolved
	}

	candidate := fields[0]
	if IsCanonical(candidate) {
		return candidate
	}
	if canonical, ok := synonyms[candidate]; ok {
		return canonical
	}
	return candidate
}
