package common

// SanitizeID rewrites every byte outside [A-Za-z0-9_-] to '_' so the result
// is safe as a filename component. Idempotent.
func SanitizeID(id string) string {
	out := []byte(id)
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
