package action

import (
	"html"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats numbers in log lines with digit grouping (2,450).
var printer = message.NewPrinter(language.English)

func sprintf(format string, args ...any) string {
	return printer.Sprintf(format, args...)
}

// highlight wraps untrusted text for display after escaping it. Log text is
// rendered as markup, so nothing operator-supplied may reach it unescaped.
func highlight(untrusted string) string {
	return `<span class="hl">` + html.EscapeString(untrusted) + `</span>`
}
