package main

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"talk-tools/internal/tools"
)

func runCLI(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	cmd := exec.Command("go", append([]string{"run", "./cmd/talk-tools"}, args...)...)
	cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+t.TempDir(), "TALKTOOLS_CONFIG=")
	wd, _ := os.Getwd()
	cmd.Dir = filepath.Dir(filepath.Dir(wd))
	return cmd.Output()
}

func TestCLIJSONOutput(t *testing.T) {
	out, err := runCLI(t, "--json", "run", "get_weather", "city=北京", "unit=fahrenheit")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if payload["invocation_id"] == "" {
		t.Fatalf("expected invocation_id")
	}
	if payload["status"] != "success" {
		t.Fatalf("unexpected status: %v", payload["status"])
	}
	output, _ := payload["output"].(string)
	if !strings.Contains(output, "59.0°F") {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestCLIListNamesEveryTool(t *testing.T) {
	out, err := runCLI(t, "list")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	for _, name := range []string{"count_user_posts", "create_post", "update_post", "get_weather"} {
		if !strings.Contains(string(out), name) {
			t.Fatalf("expected %s in list output:\n%s", name, out)
		}
	}
}

func TestRunRejectsMalformedArgs(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", "get_weather", "city"})
	err := root.Execute()
	if !errors.Is(err, tools.ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}
