// Package repair provides tolerant parsing of free-text model output into
// structured objects. Model responses should contain one JSON object but are
// routinely wrapped in prose or markdown fences, or truncated mid-array; this
// package recovers the intended object where possible and returns a
// structured failure instead of raising when it cannot.
package repair

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	reSeparators    = regexp.MustCompile(`---+`)
	reBlankLines    = regexp.MustCompile(`\n\s*\n`)
	reListPrefixes  = regexp.MustCompile(`(?m)^\s*\d+\.\s*`)
	reTrailingComma = regexp.MustCompile(`,\s*([}\]])`)
	// A backslash followed by a character that is not a legal JSON escape.
	reStrayEscape = regexp.MustCompile(`([^\\])\\([^"\\/bfnrtu])`)
)

// Unmarshal recovers the JSON object embedded in raw model output and decodes
// it into v. It tolerates markdown fences, separator lines, numbered-list
// prefixes, surrounding prose, truncated closing punctuation, trailing commas,
// and stray backslash escapes. On failure it returns an *UnparsableError and
// leaves v untouched.
func Unmarshal(raw string, v any) error {
	jsonText, err := ExtractObject(raw)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(jsonText), v); err == nil {
		return nil
	}

	// Second pass: drop trailing commas before closers and escape stray
	// backslashes, then retry once.
	fixed := reTrailingComma.ReplaceAllString(jsonText, "$1")
	fixed = reStrayEscape.ReplaceAllString(fixed, `$1\\$2`)
	fixed = reStrayEscape.ReplaceAllString(fixed, `$1\\$2`)

	if err := json.Unmarshal([]byte(fixed), v); err != nil {
		return &UnparsableError{
			Reason:  "could not parse or fix JSON: " + err.Error(),
			Snippet: snippet(jsonText),
		}
	}
	return nil
}

// ExtractObject strips the noise around the outermost {...} span in raw text
// and repairs truncation by appending missing closing braces and brackets.
// The returned string is a candidate JSON object; it is not guaranteed to
// parse.
func ExtractObject(raw string) (string, error) {
	cleaned := StripFences(raw)

	cleaned = reSeparators.ReplaceAllString(cleaned, "")
	cleaned = reBlankLines.ReplaceAllString(cleaned, "\n")
	cleaned = reListPrefixes.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	if start == -1 {
		return "", &UnparsableError{Reason: "no JSON object found in response", Snippet: snippet(raw)}
	}
	end := strings.LastIndex(cleaned, "}")

	var jsonText string
	if end > start {
		jsonText = cleaned[start : end+1]
	} else {
		// No closing brace at all; take the rest and let balancing close it.
		jsonText = cleaned[start:]
	}

	return balance(jsonText), nil
}

// balance appends the closing characters a truncated response is missing.
// Opens exceeding closes means the model ran out of tokens mid-structure; the
// scan tracks nesting (skipping string literals) so closers land in the right
// order and already-present elements are left untouched.
func balance(jsonText string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(jsonText); i++ {
		c := jsonText[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 && !inString {
		return jsonText
	}

	var sb strings.Builder
	sb.WriteString(jsonText)
	if inString {
		sb.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		sb.WriteByte(stack[i])
	}
	return sb.String()
}

// StripFences removes markdown code block wrappers from model output. Models
// wrap JSON in ```json ... ``` blocks even when instructed not to.
func StripFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.Contains(text, "```json") {
		text = strings.ReplaceAll(text, "```json", "")
		text = strings.ReplaceAll(text, "```", "")
		return strings.TrimSpace(text)
	}
	if strings.Contains(text, "```") {
		text = strings.ReplaceAll(text, "```", "")
		return strings.TrimSpace(text)
	}
	return text
}

const snippetLen = 200

func snippet(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) <= snippetLen {
		return raw
	}
	return raw[:snippetLen] + "..."
}
