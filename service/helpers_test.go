package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// loopManifest is a while loop with an if/else in its body: 7 blocks,
// 14 statements and complexity 3. Forming SSA adds 4 phis.
const loopManifest = `class: Test
method: "int test()"
locals: {l0: Test, l1: int, l2: int, l3: int}
stmts:
  - "l0 := @this: Test"
  - "l1 = 1"
  - "l2 = 2"
  - "l3 = 0"
  - "label1:"
  - "if l3 < 100 goto label2"
  - "return l2"
  - "label2:"
  - "if l2 < 20 goto label3"
  - "l2 = l3"
  - "l3 = l3 + 2"
  - "goto label4"
  - "label3:"
  - "l2 = l1"
  - "l3 = l3 + 1"
  - "goto label4"
  - "label4:"
  - "goto label1"
`

// deadManifest returns early, leaving one unreachable block of two
// statements
const deadManifest = `class = "Test"
method = "int f()"
stmts = ["l1 = 0", "return l1", "l1 = 5", "return l1"]

[locals]
l1 = "int"
`

// trapManifest protects one assignment with a handler that rejoins
const trapManifest = `{
  "class": "Test",
  "method": "int g()",
  "locals": {"l1": "int"},
  "stmts": [
    "l1 = 0",
    "begin:",
    "l1 = 1",
    "end:",
    "return l1",
    "handler:",
    "$e := @caughtexception",
    "l1 = 2",
    "goto end"
  ],
  "traps": [{"exception": "java.lang.Exception", "from": "begin", "to": "end", "with": "handler"}]
}`

// writeFile creates dir/name with content, making parent directories
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
