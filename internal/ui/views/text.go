package views

import "regexp"

// ANSI escape sequence regex to strip styles/colors
var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes color and style codes, leaving the visible text
func StripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}
