package separator

import (
	"path/filepath"
	"strings"

	"vocalless/internal/runner"
)

// Output naming used by the vocal remover.
const (
	Script            = "inference.py"
	InstrumentsSuffix = "_Instruments.wav"
	PublicSuffix      = " Instruments.wav"
)

// DefaultPython is used when no interpreter is configured.
const DefaultPython = "python"

// Config locates the vocal remover checkout.
type Config struct {
	Python    string
	RepoPath  string
	ExtraArgs []string
}

// Client builds separator commands.
type Client struct {
	cfg Config
}

// New constructs a Client.
func New(cfg Config) *Client {
	if strings.TrimSpace(cfg.Python) == "" {
		cfg.Python = DefaultPython
	}
	return &Client{cfg: cfg}
}

// Command runs inference on input, writing stems into outDir. The process
// runs from the checkout so its relative model paths resolve.
func (c *Client) Command(input, outDir string) runner.Command {
	args := make([]string, 0, 5+len(c.cfg.ExtraArgs))
	args = append(args,
		filepath.Join(c.cfg.RepoPath, Script),
		"--input", input,
		"--output_dir", outDir,
	)
	args = append(args, c.cfg.ExtraArgs...)
	return runner.Command{
		Binary: c.cfg.Python,
		Args:   args,
		Dir:    c.cfg.RepoPath,
	}
}

// IsInstrumental reports whether name is an instrumental stem.
func IsInstrumental(name string) bool {
	return strings.HasSuffix(name, InstrumentsSuffix)
}

// PublicName is the filename handed to clients for an instrumental stem.
func PublicName(name string) string {
	if !IsInstrumental(name) {
		return name
	}
	return strings.TrimSuffix(name, InstrumentsSuffix) + PublicSuffix
}
