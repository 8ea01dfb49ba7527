// Package markup builds a navigable element tree from HTML source text.
//
// The tree is built on top of the golang.org/x/net/html tokenizer rather
// than its parser: the tokenizer exposes the raw bytes of every token, so
// each node records the byte span it occupies in the original text. An
// element's OuterHTML is therefore the exact source substring, including
// attribute quoting and whitespace the author wrote.
//
// The builder is tolerant: it never fails, ignores stray end tags, closes
// a small set of elements implicitly (p, li, dt/dd, option, tr, td/th) and
// closes everything still open at end of input. It does not synthesize
// html/head/body elements; a document without an explicit <body> has no
// body node.
package markup
