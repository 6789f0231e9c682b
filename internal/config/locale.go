package config

import "strings"

// PreferredEncoding derives the text encoding from the locale environment,
// checking LC_ALL, LC_CTYPE and LANG in that order. A locale without a
// codeset, or the C/POSIX locale, yields "utf-8".
func PreferredEncoding(getenv func(string) string) string {
	for _, name := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v := getenv(name); v != "" {
			return codeset(v)
		}
	}
	return "utf-8"
}

// codeset extracts the codeset from a locale such as "de_DE.ISO-8859-1@euro".
func codeset(locale string) string {
	if locale == "C" || locale == "POSIX" {
		return "utf-8"
	}
	_, rest, ok := strings.Cut(locale, ".")
	if !ok {
		return "utf-8"
	}
	rest, _, _ = strings.Cut(rest, "@")
	if rest == "" {
		return "utf-8"
	}
	return rest
}
