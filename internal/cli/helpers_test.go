package cli

import (
	"bytes"
	"testing"

	"github.com/roach88/verdict/internal/testutil"
)

// echoSubject prints the test body (the lines after the header) and exits
// 1 when the body starts with "fail".
const echoSubject = `
body=$(grep -v '^#' "$1")
case "$body" in
  fail*) echo "$body" >&2; exit 1 ;;
esac
echo "$body"
`

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeSuite creates a test root with one passing, one failing and one
// disabled test.
func writeSuite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteTest(t, dir, "hello.millie", "# Expected: hello\nhello\n")
	testutil.WriteTest(t, dir, "nested/bye.millie", "# Expected: hello\nbye\n")
	testutil.WriteTest(t, dir, "off.millie", "# Disabled: yes\nfail never\n")
	return dir
}
