package format

import "strings"

var mdEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// Escape escapes user text for the legacy Markdown parse mode used by the bot.
func Escape(text string) string {
	return mdEscaper.Replace(text)
}

// Code renders s as inline code. Backticks cannot be escaped inside a code
// span in legacy Markdown, so they are replaced.
func Code(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}

// mdSpecials are the characters legacy Markdown treats as entity delimiters.
const mdSpecials = "_*`["

// Bold renders s in bold. Legacy Markdown has no escapes inside an entity,
// so the bold run is closed around every special character, which is then
// written escaped outside it.
func Bold(s string) string {
	var out, run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			out.WriteString("*" + run.String() + "*")
			run.Reset()
		}
	}
	for _, r := range s {
		if strings.ContainsRune(mdSpecials, r) {
			flush()
			out.WriteString(`\` + string(r))
			continue
		}
		run.WriteRune(r)
	}
	flush()
	return out.String()
}
