package e2e

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

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

const deadManifest = `class = "Test"
method = "int f()"
stmts = ["l1 = 0", "return l1", "l1 = 5", "return l1"]

[locals]
l1 = "int"
`

const trapManifest = `{
  "class": "Test",
  "method": "int g()",
  "locals": {"l1": "int"},
  "stmts": ["l1 = 0", "begin:", "l1 = 1", "end:", "return l1", "handler:", "$e := @caughtexception", "l1 = 2", "goto end"],
  "traps": [{"exception": "java.lang.Exception", "from": "begin", "to": "end", "with": "handler"}]
}`

// buildIrscnBinary compiles the CLI into a temporary directory
func buildIrscnBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "irscn")

	// Build from the project root, one level up from e2e
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/irscn")
	projectRoot, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("Failed to get project root: %v", err)
	}
	cmd.Dir = projectRoot

	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build irscn binary: %v\n%s", err, out)
	}
	return binaryPath
}

// createManifestFile writes a manifest into dir
func createManifestFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	filePath := filepath.Join(dir, filename)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", filename, err)
	}
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", filename, err)
	}
	return filePath
}

// createTestConfigFile creates a temporary .irscn.toml config file for testing
// that directs output to the specified output directory
func createTestConfigFile(t *testing.T, testDir, outputDir string) {
	t.Helper()
	configFile := filepath.Join(testDir, ".irscn.toml")
	configContent := fmt.Sprintf("[output]\ndirectory = \"%s\"\n", outputDir)
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
}

// runIrscn runs the binary in dir and returns stdout, stderr and the error
func runIrscn(t *testing.T, binaryPath, dir string, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
