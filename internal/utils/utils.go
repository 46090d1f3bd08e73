package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	unsafeFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]+`)
	repeatedSpaces  = regexp.MustCompile(`\s{2,}`)
	nameSeparators  = regexp.MustCompile(`[._\-\s]+`)
)

// SanitizeFileName makes a show or release name safe to use as a single path element.
func SanitizeFileName(name string) string {
	name = unsafeFileChars.ReplaceAllString(name, " ")
	name = repeatedSpaces.ReplaceAllString(name, " ")
	return strings.Trim(name, " .")
}

// NormalizeName lowercases a release or show name and collapses dots, dashes and underscores
// so "The.Office.S01E01" and "The Office" compare on the same footing.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "'", "")
	return strings.TrimSpace(nameSeparators.ReplaceAllString(name, " "))
}

func IsValidLink(text string) bool {
	parsedURL, err := url.ParseRequestURI(text)
	if err != nil {
		return false
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false
	}

	re := regexp.MustCompile(`^[a-zA-Z0-9.-]+(\.[a-zA-Z]{2,}|:[0-9]+)$|^localhost(:[0-9]+)?$|^[0-9.]+(:[0-9]+)?$`)
	return re.MatchString(parsedURL.Host)
}

func IsMagnetLink(text string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), "magnet:?")
}
