package catalog

// Normalize applies post-validation defaults.
// It MUST be called only after Validate().
// It is allowed to mutate l.
func Normalize(l *Layout) {
	if l == nil {
		return
	}
	if l.FingerprintSize == 0 {
		l.FingerprintSize = 4
	}
}
