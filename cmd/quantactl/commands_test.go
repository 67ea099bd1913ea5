package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/quanta/pkg/social/xfeed"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), append([]string{"quantactl"}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

// itemRows 返回输出中的条目行（post, author, time）。
func itemRows(stdout string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(stdout, "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rows = append(rows, strings.Fields(line))
	}
	return rows
}

func TestFeed_Pages(t *testing.T) {
	code, stdout, stderr := runCLI(t, "feed", "--viewer", "v1", "--pages", "2")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "# page 1 offset=0 items=20")
	assert.Contains(t, stdout, "# page 2 offset=20 items=20")
	rows := itemRows(stdout)
	require.Len(t, rows, 40)
	assert.Equal(t, "post-001", rows[0][0])
	assert.Equal(t, "post-040", rows[39][0])
}

func TestFeed_BlockAndMute(t *testing.T) {
	code, stdout, stderr := runCLI(t, "feed", "--viewer", "v1", "--block", "bob,carol", "--mute", "dave")
	require.Equal(t, 0, code, stderr)

	// 一半作者被排除，补齐三轮后仍差一条
	rows := itemRows(stdout)
	require.Len(t, rows, 19)
	for _, row := range rows {
		assert.NotContains(t, []string{"bob", "carol", "dave"}, row[1], row[0])
	}
}

func TestFeed_AvatarScope(t *testing.T) {
	code, stdout, stderr := runCLI(t, "feed", "--viewer", "v1", "--avatar", "alice", "--page-size", "5")
	require.Equal(t, 0, code, stderr)

	rows := itemRows(stdout)
	require.Len(t, rows, 5)
	for _, row := range rows {
		assert.Equal(t, "alice", row[1])
	}
}

func TestFeed_JSON(t *testing.T) {
	code, stdout, stderr := runCLI(t, "feed", "--viewer", "v1", "--page-size", "7", "--json")
	require.Equal(t, 0, code, stderr)

	var pages []xfeed.Page
	require.NoError(t, json.Unmarshal([]byte(stdout), &pages))
	require.Len(t, pages, 1)
	assert.Len(t, pages[0].Items, 7)
	assert.True(t, pages[0].HasMore)
}

func TestFeed_StopsAtEnd(t *testing.T) {
	code, stdout, stderr := runCLI(t, "feed", "--viewer", "v1", "--page-size", "50", "--pages", "10")
	require.Equal(t, 0, code, stderr)

	// 120 条演示数据：50 + 50 + 20
	assert.Equal(t, 3, strings.Count(stdout, "# page"))
	assert.Len(t, itemRows(stdout), 120)
}

func TestFeed_Config(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quanta.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quanta:\n  defaultPageSize: 4\n  log:\n    level: error\n"), 0o600))

	code, stdout, stderr := runCLI(t, "--config", path, "feed", "--viewer", "v1")
	require.Equal(t, 0, code, stderr)
	assert.Len(t, itemRows(stdout), 4)

	code, _, stderr = runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "feed", "--viewer", "v1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "错误")
}

func TestFeed_RedisRelations(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	code, stdout, stderr := runCLI(t, "--redis-addr", mr.Addr(), "feed", "--viewer", "v1", "--block", "alice")
	require.Equal(t, 0, code, stderr)

	assert.True(t, mr.Exists("quanta:blk:out:v1"))
	for _, row := range itemRows(stdout) {
		assert.NotEqual(t, "alice", row[1])
	}
}

func TestStats(t *testing.T) {
	code, stdout, stderr := runCLI(t, "stats", "--viewer", "v1", "--pages", "2", "--block", "erin")
	require.Equal(t, 0, code, stderr)

	assert.Regexp(t, `pages\s+2`, stdout)
	assert.Regexp(t, `items\s+40`, stdout)
	assert.Regexp(t, `scopes\s+1`, stdout)
	assert.Regexp(t, `loading\s+0`, stdout)
	assert.Regexp(t, `feed has more\s+true`, stdout)
	// erin 被屏蔽，预热的是其余五个作者
	assert.Regexp(t, `cache profiles\s+5/100`, stdout)
	assert.Regexp(t, `cache stats\s+0/200`, stdout)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing viewer", []string{"feed"}},
		{"page size too large", []string{"feed", "--viewer", "v1", "--page-size", "51"}},
		{"negative page size", []string{"feed", "--viewer", "v1", "--page-size", "-1"}},
		{"zero pages", []string{"stats", "--viewer", "v1", "--pages", "0"}},
		{"negative mute duration", []string{"feed", "--viewer", "v1", "--mute", "bob", "--mute-for", "-1m"}},
		{"unknown flag", []string{"feed", "--viewer", "v1", "--bogus"}},
		{"bad int", []string{"feed", "--viewer", "v1", "--pages", "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, 2, code)
		})
	}
}

func TestIsCLIUsageError(t *testing.T) {
	assert.False(t, isCLIUsageError(assert.AnError))
	assert.True(t, isCLIUsageError(&usageError{msg: "flag provided but not defined: -x"}))
}
