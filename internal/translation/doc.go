// Package translation translates captions into the requested language.
//
// A Translator never fails its caller: when the backend errors, times out
// or answers with nothing, the original text is returned unchanged and the
// Result is tagged as a fallback. Texts already written in the target
// language are returned without calling the backend at all.
package translation
