package providers

import "regexp"

var (
	doubleBracePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)
	singleBracePattern = regexp.MustCompile(`\{\s*([a-zA-Z0-9_.]+)\s*\}`)
	doubleSquarePattern = regexp.MustCompile(`\[\[\s*([a-zA-Z0-9_.]+)\s*\]\]`)
)

// ExtractPersonalizationVariables scans subject and body for the three
// brace patterns a provider might use for merge fields — `{{var}}`,
// `{var}`, and `[[var]]` — and returns the deduplicated variable names:
// all `{{var}}` names first, then `{var}`, then `[[var]]`, each group in
// first-seen order across subject then body.
func ExtractPersonalizationVariables(subject, body string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(matches [][]string) {
		for _, m := range matches {
			name := m[1]
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}

	text := subject + "\n" + body
	add(doubleBracePattern.FindAllStringSubmatch(text, -1))
	add(singleBracePattern.FindAllStringSubmatch(text, -1))
	add(doubleSquarePattern.FindAllStringSubmatch(text, -1))

	return out
}
