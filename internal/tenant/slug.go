package tenant

import "strings"

// Slugify derives a URL-safe, lowercase, underscore-separated slug from a
// tenant name. The result is always a valid schema-name fragment; it is
// regenerated whenever the tenant is renamed.
func Slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true // collapse leading separators

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	return strings.TrimRight(b.String(), "_")
}
