package ytdl

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDownloadCommandArguments(t *testing.T) {
	c := New("", "/opt/ffmpeg/bin")
	cmd := c.DownloadCommand("https://youtu.be/abc", "/work/abc/download")
	if cmd.Binary != DefaultBinary {
		t.Fatalf("binary = %q", cmd.Binary)
	}
	got := strings.Join(cmd.Args, " ")
	want := "--extract-audio --output " + filepath.Join("/work/abc/download", OutputTemplate) +
		" --add-metadata --embed-thumbnail --newline --ffmpeg-location /opt/ffmpeg/bin https://youtu.be/abc"
	if got != want {
		t.Fatalf("args = %q\nwant   %q", got, want)
	}
}

func TestDownloadCommandWithoutFFmpegDir(t *testing.T) {
	cmd := New("yt-dlp", "").DownloadCommand("u", "/d")
	for _, arg := range cmd.Args {
		if arg == "--ffmpeg-location" {
			t.Fatal("unexpected --ffmpeg-location without a directory")
		}
	}
	if cmd.Args[len(cmd.Args)-1] != "u" {
		t.Fatalf("url must be last, got %q", cmd.Args)
	}
}

func TestLookupCommand(t *testing.T) {
	cmd := New("yt-dlp", "").LookupCommand("https://example.com/v")
	if cmd.Binary != "yt-dlp" || strings.Join(cmd.Args, " ") != "--get-id https://example.com/v" {
		t.Fatalf("unexpected command %s", cmd)
	}
}

func TestParseID(t *testing.T) {
	tests := map[string]string{
		"dQw4w9WgXcQ\n":             "dQw4w9WgXcQ",
		"\n  \n  abc123 \nsecond\n": "abc123",
		"":                          "",
		"   \n\t\n":                 "",
	}
	for input, want := range tests {
		if got := ParseID(input); got != want {
			t.Fatalf("ParseID(%q) = %q, want %q", input, got, want)
		}
	}
}
