package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file that keeps every path inside a temp dir.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
database:
  path: %s
sessions:
  path: %s
auth:
  pbkdf2_iterations: 1000
admin:
  name: Angela
  email: angela@example.com
  password: secret-pw
avatar:
  enabled: false
logging:
  level: disabled
data:
  backup_dir: %s
`, filepath.Join(dir, "data", "blog.db"), filepath.Join(dir, "data", "sessions"), filepath.Join(dir, "backups"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path, dir
}

// run executes the command tree and returns its combined output.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
