package tool_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixlayer/ace/ledger"
	"github.com/sixlayer/ace/tool"
)

func TestRegistry_ReadToolNeedsNoToken(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(tool.Clock{})

	res, err := r.Execute(context.Background(), "clock", nil, nil, ledger.New())
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestRegistry_WriteToolWithoutTokenRejected(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(tool.FileWrite{})

	_, err := r.Execute(context.Background(), "file_write", map[string]interface{}{"path": "/tmp/x", "content": "y"}, nil, ledger.New())
	require.Error(t, err)
	var unauth *tool.UnauthorizedToolError
	require.ErrorAs(t, err, &unauth)
}

func TestRegistry_WriteToolWithValidTokenSucceeds(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(tool.FileWrite{})
	led := ledger.New()
	tokenID := led.IssueToken("file_write", time.Now().Add(time.Minute), 1, "5")

	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	res, err := r.Execute(context.Background(), "file_write", map[string]interface{}{"path": path, "content": "hello"}, &tokenID, led)
	require.NoError(t, err)
	assert.True(t, res.Success)

	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "hello", string(content))
}

func TestRegistry_WriteToolTokenExhaustedAfterOneUse(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(tool.FileWrite{})
	led := ledger.New()
	tokenID := led.IssueToken("file_write", time.Now().Add(time.Minute), 1, "5")

	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	params := map[string]interface{}{"path": path, "content": "hello"}

	_, err := r.Execute(context.Background(), "file_write", params, &tokenID, led)
	require.NoError(t, err)

	_, err = r.Execute(context.Background(), "file_write", params, &tokenID, led)
	require.Error(t, err)
}

func TestRegistry_ScopeMismatchRejected(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(tool.FileWrite{})
	led := ledger.New()
	tokenID := led.IssueToken("some_other_tool", time.Now().Add(time.Minute), 1, "5")

	_, err := r.Execute(context.Background(), "file_write", map[string]interface{}{"path": "/tmp/x", "content": "y"}, &tokenID, led)
	require.Error(t, err)
}

func TestRegistry_UnknownToolNotFound(t *testing.T) {
	r := tool.NewRegistry()
	_, err := r.Execute(context.Background(), "nope", nil, nil, ledger.New())
	require.Error(t, err)
	var nf *tool.NotFoundError
	require.ErrorAs(t, err, &nf)
}
