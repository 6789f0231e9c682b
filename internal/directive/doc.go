// Package directive parses the directive header of a test file.
//
// A test file declares how the harness should judge it in a block of
// comment lines at the very top of the file:
//
//	# ExpectedType: Int
//	# ExpectFailure
//	# ExpectedError: divide by zero
//	let x = 1 / 0
//
// Each line is split once on the first colon into a key and a value, both
// trimmed. Comment lines without a colon are ignored. The header ends at the
// first line that is empty or does not start with '#', so a blank line
// between two directive lines hides everything after it.
//
// # Vocabulary
//
//   - Disabled: boolean; true skips the test without running the subject
//   - Enabled: boolean; present and false skips the test
//   - ExpectFailure: presence flag; a nonzero exit code is tolerated
//   - Expected: trimmed stdout must equal the value
//   - ExpectedType: trimmed stdout must equal the value
//   - ExpectedError: stderr must contain the value
//
// Booleans accept true, 1, yes and y in any case.
package directive
