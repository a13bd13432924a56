package tool

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sixlayer/ace/vocab"
)

// Clock reports the current time; always READ.
// Grounded on original_source/src/omen/tools/builtin.py's ClockTool.
type Clock struct{ BaseTool }

func (Clock) Name() string        { return "clock" }
func (Clock) Description() string { return "Get current date and time" }

func (Clock) Execute(_ context.Context, params map[string]interface{}) (Result, error) {
	format, _ := params["format"].(string)
	now := time.Now().UTC()

	var timeStr string
	switch format {
	case "unix":
		timeStr = fmt.Sprintf("%d", now.Unix())
	case "":
		timeStr = now.Format(time.RFC3339)
	default:
		timeStr = now.Format(format)
	}

	return OK(map[string]interface{}{"current_time": timeStr, "timezone": "UTC"}, "clock", nil), nil
}

// FileRead reads a local file; READ.
type FileRead struct{ BaseTool }

func (FileRead) Name() string        { return "file_read" }
func (FileRead) Description() string { return "Read contents of a local file" }

func (FileRead) Execute(_ context.Context, params map[string]interface{}) (Result, error) {
	path, _ := params["path"].(string)
	if path == "" {
		return Fail("missing required parameter: path"), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Fail(fmt.Sprintf("read error: %v", err)), nil
	}
	return OK(map[string]interface{}{
		"path":       path,
		"content":    string(content),
		"size_bytes": len(content),
	}, "file_read", string(content)), nil
}

// FileWrite writes a local file; WRITE, requires a valid authorization
// token covering this tool's scope to execute via Registry.Execute.
type FileWrite struct{ BaseTool }

func (FileWrite) Name() string            { return "file_write" }
func (FileWrite) Description() string     { return "Write contents to a local file (requires authorization)" }
func (FileWrite) Safety() vocab.ToolSafety { return vocab.ToolSafetyWrite }

func (FileWrite) Execute(_ context.Context, params map[string]interface{}) (Result, error) {
	path, _ := params["path"].(string)
	content, hasContent := params["content"].(string)
	if path == "" {
		return Fail("missing required parameter: path"), nil
	}
	if !hasContent {
		return Fail("missing required parameter: content"), nil
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	mode := "write"
	if m, _ := params["mode"].(string); m == "append" {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		mode = "append"
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return Fail(fmt.Sprintf("write error: %v", err)), nil
	}
	defer f.Close()
	n, err := f.WriteString(content)
	if err != nil {
		return Fail(fmt.Sprintf("write error: %v", err)), nil
	}

	return OK(map[string]interface{}{
		"path":          path,
		"bytes_written": n,
		"mode":          mode,
	}, "file_write", nil), nil
}
