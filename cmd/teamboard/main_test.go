package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args and returns stdout. Flags are reset
// afterwards because cobra keeps parsed values on the package-level commands.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	t.Cleanup(func() { resetFlags(rootCmd) })
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// workspace isolates config lookup and the file store in a temp dir.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TEAMBOARD_LOG_LEVEL", "error")
	t.Setenv("TEAMBOARD_STORE_BACKEND", "file")
	t.Setenv("TEAMBOARD_STORE_DIR", filepath.Join(dir, "teams"))
	return dir
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "teamboard version "))
}

func TestCapabilitiesSearch(t *testing.T) {
	workspace(t)

	out, err := run(t, "capabilities", "search", "tax compliance")
	require.NoError(t, err)
	assert.Contains(t, out, "`tax-compliance`")
	assert.Contains(t, out, "Finance Management › Taxes")

	out, err = run(t, "capabilities", "search", "--level", "1", "--format", "json", "finance")
	require.NoError(t, err)
	var nodes []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.NotEmpty(t, nodes)
	for _, n := range nodes {
		assert.EqualValues(t, 1, n["level"])
	}

	out, err = run(t, "capabilities", "search", "--format", "json", "zzzz-nothing")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	_, err = run(t, "capabilities", "search", "--category", "nope", "x")
	assert.Error(t, err)
}

func TestCapabilitiesTreeAndShow(t *testing.T) {
	workspace(t)

	out, err := run(t, "capabilities", "tree", "--level", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "`finance-management`")
	assert.NotContains(t, out, "`taxes`")

	out, err = run(t, "capabilities", "tree", "--format", "mermaid")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph LR"))

	out, err = run(t, "capabilities", "show", "taxes")
	require.NoError(t, err)
	assert.Contains(t, out, "# Taxes")
	assert.Contains(t, out, "Tax Compliance")

	_, err = run(t, "capabilities", "show", "missing")
	assert.Error(t, err)
}

func TestTeamsLifecycle(t *testing.T) {
	workspace(t)

	out, err := run(t, "teams", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No teams found.")

	out, err = run(t, "teams", "create", "--id", "payments", "--capability", "treasury", "Payments")
	require.NoError(t, err)
	assert.Equal(t, "payments\n", out)

	out, err = run(t, "teams", "pick", "payments", "--query", "tax", "--toggle", "tax-compliance", "--toggle", "treasury")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved 1 capabilities on 'Payments'.")

	out, err = run(t, "teams", "show", "--format", "json", "payments")
	require.NoError(t, err)
	var team struct {
		Capabilities []string `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &team))
	assert.Equal(t, []string{"tax-compliance"}, team.Capabilities)

	out, err = run(t, "teams", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "payments")

	out, err = run(t, "teams", "rm", "payments", "ghost")
	assert.Error(t, err)
	assert.Contains(t, out, "Removed team 'payments'")
}

func TestInvalidConfig(t *testing.T) {
	workspace(t)
	t.Setenv("TEAMBOARD_STORE_BACKEND", "tape")

	_, err := run(t, "teams", "ls")
	assert.Error(t, err)
}

func TestTeamsPickJSON(t *testing.T) {
	workspace(t)

	_, err := run(t, "teams", "create", "--id", "ledger", "Ledger")
	require.NoError(t, err)

	rootCmd.SetIn(strings.NewReader(`{"type":"toggle_select","node_id":"general-ledger"}
{"type":"confirm"}
`))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := run(t, "teams", "pick", "--json", "ledger")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], `"general-ledger"`)
}
