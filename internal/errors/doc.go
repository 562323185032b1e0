// Package errors provides error handling conventions for the reg CLI.
//
// This package defines sentinel errors for the scanner's fatal failure
// conditions, an ExitError type for CLI exit code handling, and exit code
// constants following standard Unix conventions.
//
// # Sentinel Errors
//
// Sentinel errors allow callers to check for specific error conditions
// using [errors.Is]:
//
//	if errors.Is(err, regerrors.ErrNoRoots) {
//	    // nothing was scannable at all
//	}
//
// Only pre-traversal conditions are modeled here. Per-subtree failures
// (access denied, vanished keys) are recoverable and never reach this
// package; the traversal engine logs them and the scan continues.
//
// # Exit Codes
//
//   - ExitSuccess (0): Scan completed, even with zero matches or
//     skipped subtrees
//   - ExitUser (1): User-related error (invalid root name, bad flags)
//   - ExitSystem (2): System-related error (no accessible roots, I/O)
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion. It supports unwrapping via [errors.Unwrap] and [errors.As]:
//
//	var exitErr *regerrors.ExitError
//	if errors.As(err, &exitErr) {
//	    os.Exit(exitErr.Code)
//	}
package errors
