// Package sanitizer cleans untrusted notification input before it is
// validated, stored or rendered.
//
// String helpers are plain func(string) string values that combine with
// Apply and Compose:
//
//	clean := sanitizer.Compose(sanitizer.RemoveNullBytes, sanitizer.StripScriptTags)
//	subject := clean(raw)
//
// Clean is the ready-made pipeline used for request fields. Document walks a
// decoded JSON object, drops keys that start with "$" or contain a dot, and
// applies a string pipeline to every string value it finds:
//
//	data := sanitizer.Document(payload.Data, sanitizer.Clean)
//
// None of the helpers fail. HTML escaping is left to the template engine.
package sanitizer
