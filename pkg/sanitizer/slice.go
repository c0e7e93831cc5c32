package sanitizer

// NormalizeIdentities normalizes each identity, dropping blanks and
// duplicates while keeping first-seen order.
func NormalizeIdentities(identities []string) []string {
	out := make([]string, 0, len(identities))
	seen := make(map[string]struct{}, len(identities))
	for _, raw := range identities {
		id := NormalizeIdentity(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// WithoutIdentity returns a copy of identities minus every entry equal to
// identity after normalization.
func WithoutIdentity(identities []string, identity string) []string {
	identity = NormalizeIdentity(identity)
	out := make([]string, 0, len(identities))
	for _, id := range identities {
		if NormalizeIdentity(id) != identity {
			out = append(out, id)
		}
	}
	return out
}
