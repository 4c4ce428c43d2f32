package separator

import (
	"strings"
	"testing"
)

func TestCommand(t *testing.T) {
	c := New(Config{RepoPath: "/opt/vocal-remover", ExtraArgs: []string{"--tta", "--gpu", "0"}})
	cmd := c.Command("/work/x/transcode/song.wav", "/work/x/separate")
	if cmd.Binary != DefaultPython {
		t.Fatalf("binary = %q", cmd.Binary)
	}
	if cmd.Dir != "/opt/vocal-remover" {
		t.Fatalf("dir = %q", cmd.Dir)
	}
	want := "/opt/vocal-remover/inference.py --input /work/x/transcode/song.wav --output_dir /work/x/separate --tta --gpu 0"
	if got := strings.Join(cmd.Args, " "); got != want {
		t.Fatalf("args = %q", got)
	}
}

func TestPublicName(t *testing.T) {
	tests := map[string]string{
		"song_Instruments.wav": "song Instruments.wav",
		"a_b_Instruments.wav":  "a_b Instruments.wav",
		"song_Vocals.wav":      "song_Vocals.wav",
		"_Instruments.wav.bak": "_Instruments.wav.bak",
	}
	for in, want := range tests {
		if got := PublicName(in); got != want {
			t.Fatalf("PublicName(%q) = %q, want %q", in, got, want)
		}
	}
}
