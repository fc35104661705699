// Package language holds the fixed table of languages echovision can
// translate captions into and speak aloud. Lookups accept either the
// human-readable name or the language code, case-insensitively.
package language
