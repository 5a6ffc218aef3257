package runlog

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestOpenWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	logs := Open(filepath.Join(dir, "logs"), nil)
	logs.Command([]string{"--all", "--batch-size", "5"})
	logs.Event("processing %s", "IMG_0001.jpg")

	hdr := http.Header{}
	hdr.Set("X-RateLimit-Remaining", "997")
	logs.APICall("req-1", "GET", "https://api.nal.usda.gov/fdc/v1/foods/search", 200, 120*time.Millisecond, hdr)
	logs.Close()

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("read logs dir: %v", err)
	}
	var cmdFile, apiFile string
	for _, e := range entries {
		switch {
		case strings.HasPrefix(e.Name(), "command_execution_"):
			cmdFile = filepath.Join(dir, "logs", e.Name())
		case strings.HasPrefix(e.Name(), "api_calls_"):
			apiFile = filepath.Join(dir, "logs", e.Name())
		}
	}
	if cmdFile == "" || apiFile == "" {
		t.Fatalf("missing log files, got %v", entries)
	}

	cmd, _ := os.ReadFile(cmdFile)
	if !strings.Contains(string(cmd), "--batch-size 5") {
		t.Errorf("command log missing invocation: %s", cmd)
	}
	if !strings.Contains(string(cmd), "IMG_0001.jpg") {
		t.Errorf("command log missing event: %s", cmd)
	}

	api, _ := os.ReadFile(apiFile)
	if !strings.Contains(string(api), "x-ratelimit-remaining=997") {
		t.Errorf("api log missing rate-limit header: %s", api)
	}
	if !strings.Contains(string(api), "status=200") {
		t.Errorf("api log missing status: %s", api)
	}
}

func TestNilSafeWhenDirUnset(t *testing.T) {
	logs := Open("", nil)
	logs.Command(nil)
	logs.Event("noop")
	logs.APICall("", "GET", "http://x", 0, 0, http.Header{})
	logs.Close()
}
