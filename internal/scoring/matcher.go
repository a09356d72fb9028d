package scoring

import "strings"

// AnswerMatcher decides whether a free-text answer earns full credit against
// the reference answer.
type AnswerMatcher func(studentText, reference string) bool

// SubstringMatcher awards credit when the normalised student text and the
// normalised reference contain one another. It is a lenient heuristic: a very
// short reference such as "a" matches most answers. Empty text on either side
// never matches.
func SubstringMatcher(studentText, reference string) bool {
	student := normalize(studentText)
	ref := normalize(reference)
	if student == "" || ref == "" {
		return false
	}
	return strings.Contains(student, ref) || strings.Contains(ref, student)
}

// ExactMatcher awards credit only on a case-insensitive exact match.
func ExactMatcher(studentText, reference string) bool {
	student := normalize(studentText)
	return student != "" && student == normalize(reference)
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
