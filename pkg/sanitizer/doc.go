// Package sanitizer normalizes user input before validation and storage.
//
// All functions are idempotent and never fail: input that cannot be
// normalized comes back empty and is left for the validator to reject.
//
//   - Identities (emails): trimmed and lowercased so the same person always
//     compares equal across sharedWith, holders and queued reservations.
//   - Item names: surrounding whitespace trimmed, inner runs collapsed.
//   - Slices: normalized, then empties and duplicates dropped.
package sanitizer
