package worker

import "regexp"

// codeBlockPatterns lists, in priority order, the three fenced-code-block
// shapes a code-strategy response may use (spec §4.6 "code" row / §4 code
// block section): a plain fenced block, one closed with an "<END>"
// sentinel, and one closed with a loose (no angle-bracket) "END" sentinel.
// Grounded on the teacher's original_source equivalent
// (main/code_workers.py's extract_code_blocks, which only recognizes the
// "<end_code>" variant) generalized to the three formats the spec names.
var codeBlockPatterns = []*regexp.Regexp{
	// ```python ... ```<END>  (sentinel right after the closing fence)
	regexp.MustCompile("(?s)```(?:python|py)?\\s*\\n(.*?)```<END>"),
	// ```python ... <END> ```  (sentinel inside, before the closing fence)
	regexp.MustCompile("(?s)```(?:python|py)?\\s*\\n(.*?)<END>\\s*```"),
	// ```python ... ```  (plain fenced block, no sentinel)
	regexp.MustCompile("(?s)```(?:python|py)?\\s*\\n(.*?)```"),
}

// extractCode returns the first complete code block matched by any of the
// three recognized fenced formats, trying them in priority order and
// returning the first one that actually matches.
func extractCode(text string) (string, bool) {
	for _, pattern := range codeBlockPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}
