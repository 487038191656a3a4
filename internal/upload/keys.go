package upload

import "strings"

// ParseKey extracts the owning subject from an object key of the shape
// {prefix}{subject}/{rest}. ok is false for keys outside the prefix or
// missing the subject segment.
func ParseKey(prefix, key string) (subject string, ok bool) {
	rest, found := strings.CutPrefix(key, prefix)
	if !found {
		return "", false
	}
	subject, tail, found := strings.Cut(rest, "/")
	if !found || subject == "" || tail == "" {
		return "", false
	}
	return subject, true
}
