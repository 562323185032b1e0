// Package scan implements the recursive traversal-and-match engine.
//
// A [Scanner] walks one or more registry roots depth-first in pre-order,
// applies a [Matcher] to three surfaces of every node (the key's own
// name, each value name, each value's rendered data) and streams
// [Match] records to the caller as they are discovered. Subtrees that
// deny access or vanish mid-scan are logged and skipped; a failing
// branch never suppresses its siblings.
//
// Roots are mutually independent and scanned concurrently, one worker
// per root. Each worker owns its handle set exclusively; emission is
// serialized through a single channel, so the caller's emit function
// never runs concurrently with itself.
package scan
