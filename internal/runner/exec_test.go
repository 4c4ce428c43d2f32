package runner

import (
	"bufio"
	"context"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestScanLinesSplitsCarriageReturns(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"newlines", "a\nb\n", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"bare cr", "size=1\rsize=2\rdone\n", []string{"size=1", "size=2", "done"}},
		{"no trailing newline", "a\nlast", []string{"a", "last"}},
		{"trailing cr", "a\r", []string{"a"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(scanLines)
			var got []string
			for scanner.Scan() {
				got = append(got, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				t.Fatalf("scan error: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Fatalf("lines = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		line string
		want float64
		ok   bool
	}{
		{"[download]  42.5% of 3.20MiB at 1.00MiB/s ETA 00:02", 42.5, true},
		{"100%|██████████| 12/12", 100, true},
		{"frame=  120 fps=0.0", 0, false},
		{"bogus 250%", 0, false},
	}
	for _, tt := range tests {
		got, ok := parsePercent(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("parsePercent(%q) = %v, %v; want %v, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTailLines(t *testing.T) {
	text := "1\n2\n3\n4"
	if got := tailLines(text, 2); got != "3\n4" {
		t.Fatalf("tailLines = %q", got)
	}
	if got := tailLines(text, 10); got != text {
		t.Fatalf("tailLines = %q", got)
	}
}

func TestCommandExecutorClosesPipesHeldByLeftoverChildren(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	var (
		mu    sync.Mutex
		lines []string
	)
	e := commandExecutor{waitDelay: 100 * time.Millisecond}

	// sh exits at once but leaves sleep holding stdout.
	start := time.Now()
	err := e.Run(context.Background(), Command{Binary: "sh", Args: []string{"-c", "sleep 4 & echo started"}}, func(_ Stream, line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Run returned after %s", elapsed)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 1 || lines[0] != "started" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestCommandExecutorStartFailure(t *testing.T) {
	err := commandExecutor{}.Run(context.Background(), Command{Binary: "/nonexistent/vocalless-tool"}, nil)
	if err == nil || !strings.Contains(err.Error(), "start command") {
		t.Fatalf("expected start failure, got %v", err)
	}
}
