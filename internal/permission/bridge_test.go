package permission

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/telclaude/telclaude/internal/constants"
)

func TestBridgeRoundTrip(t *testing.T) {
	cfgDir := t.TempDir()

	requests := make(chan Request, 1)
	b, err := NewBridge(cfgDir, func(r Request) { requests <- r }, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	// The hook side: drop a request file into the config dir.
	reqPath := filepath.Join(cfgDir, constants.PermissionRequestPrefix+"req-1"+constants.PermissionRequestSuffix)
	body := `{"requestId":"req-1","toolName":"Bash","toolInput":{"command":"rm -rf build"}}`
	if err := os.WriteFile(reqPath, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	var req Request
	select {
	case req = <-requests:
	case <-time.After(2 * time.Second):
		t.Fatal("request file was not surfaced")
	}
	if req.RequestID != "req-1" || req.ToolName != "Bash" {
		t.Errorf("request = %+v", req)
	}

	if err := b.Respond("req-1", constants.PermissionApprove); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(cfgDir, constants.PermissionResponsePrefix+"req-1"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != constants.PermissionApprove {
		t.Errorf("response content = %q", data)
	}
}

func TestBridgeSurfacesEachRequestOnce(t *testing.T) {
	cfgDir := t.TempDir()

	requests := make(chan Request, 4)
	b, err := NewBridge(cfgDir, func(r Request) { requests <- r }, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	// A single WriteFile emits both a Create and a Write event; the user
	// must still get exactly one keyboard.
	reqPath := filepath.Join(cfgDir, constants.PermissionRequestPrefix+"once"+constants.PermissionRequestSuffix)
	body := `{"requestId":"once","toolName":"Bash"}`
	if err := os.WriteFile(reqPath, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-requests:
	case <-time.After(2 * time.Second):
		t.Fatal("request file was not surfaced")
	}

	select {
	case req := <-requests:
		t.Errorf("request surfaced twice: %+v", req)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestBridgeIgnoresUnrelatedFiles(t *testing.T) {
	cfgDir := t.TempDir()

	requests := make(chan Request, 1)
	b, err := NewBridge(cfgDir, func(r Request) { requests <- r }, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if err := os.WriteFile(filepath.Join(cfgDir, "chat-id"), []byte("42\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "attached"), []byte("x\n/y\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case req := <-requests:
		t.Errorf("unexpected request: %+v", req)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestReadRequestCommandPreview(t *testing.T) {
	dir := t.TempDir()

	transcriptPath := filepath.Join(dir, "t.jsonl")
	line := `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash","input":{"command":"make deploy"}}]}}`
	if err := os.WriteFile(transcriptPath, []byte(line+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	reqPath := filepath.Join(dir, "permission-request-p.json")
	body := `{"requestId":"p","toolName":"Bash","transcriptPath":"` + transcriptPath + `"}`
	if err := os.WriteFile(reqPath, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	req, err := ReadRequest(reqPath)
	if err != nil {
		t.Fatal(err)
	}
	if req.ToolCommand != "make deploy" {
		t.Errorf("ToolCommand = %q", req.ToolCommand)
	}
}
