// Package harness judges subject-program runs against test file directives.
//
// For every test file the harness reads the directive header, decides
// whether the test is skipped, invokes the subject program, and matches the
// captured outcome against the declared expectations. Each file yields
// exactly one Verdict:
//
//   - ok: every declared expectation held
//   - fail: the first violated expectation, with a detail message
//   - skip: the test is disabled or not enabled; the subject never runs
//   - error: the test file could not be read or the subject could not be
//     started; the run continues with the next file
//
// # Matching Order
//
// Expectations are checked in a fixed order and only the first mismatch is
// reported:
//
//  1. timeout (when a timeout is configured)
//  2. exit code, unless ExpectFailure is declared
//  3. ExpectedType against trimmed stdout
//  4. Expected against trimmed stdout
//  5. ExpectedError as a substring of stderr
//
// PolicyLegacy restores the earliest harness behavior, where only one of
// Expected, ExpectedType or ExpectedError is examined per test.
//
// # Usage
//
//	paths, err := harness.Discover("tests", "**/*.millie", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h := harness.New(subject, harness.WithObserver(reporter))
//	summary, err := h.Run(ctx, paths)
package harness
