package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pixelshare/pkg/buildinfo"
	"github.com/matzehuels/pixelshare/pkg/cache"
	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/observability"
	"github.com/matzehuels/pixelshare/pkg/transport"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pixelshare"

	// stdinArg selects standard input where a file argument is expected.
	stdinArg = "-"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	stdin  io.Reader
	stdout io.Writer
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
}

// SetLogLevel updates the logger's level. At debug level the codec, cache and
// HTTP hooks log through the CLI logger too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		observability.NewLogHooks(c.Logger).Register()
	}
}

// =============================================================================
// Cache
// =============================================================================

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheKeyer scopes cache keys to the running release so renderer changes
// never serve stale previews.
func cacheKeyer() cache.Keyer {
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
}

// cacheDir returns the cache directory using XDG standard (~/.cache/pixelshare/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Input & Output
// =============================================================================

// readInput returns the contents of path, or standard input for "" and "-".
func (c *CLI) readInput(path string) ([]byte, error) {
	if path == "" || path == stdinArg {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return data, nil
}

// readDocument loads a drawing in its JSON form and fills defaults for
// omitted fields.
func (c *CLI) readDocument(path string) (*drawing.Document, error) {
	data, err := c.readInput(path)
	if err != nil {
		return nil, err
	}
	return parseDocument(data)
}

func parseDocument(data []byte) (*drawing.Document, error) {
	var d drawing.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse drawing JSON")
	}
	d.ApplyDefaults()
	return &d, nil
}

// loadDrawing accepts a drawing JSON file, a share URL or a bare token, in
// that order of preference.
func (c *CLI) loadDrawing(codec *transport.Codec, arg string) (*drawing.Document, transport.Format, error) {
	if arg == stdinArg {
		d, err := c.readDocument(arg)
		return d, "", err
	}
	if _, err := os.Stat(arg); err == nil {
		d, err := c.readDocument(arg)
		return d, "", err
	}

	token, err := transport.TokenFromURL(arg)
	if err != nil {
		return nil, "", err
	}
	return codec.Decode(token)
}

// writeJSON prints v as indented JSON.
func (c *CLI) writeJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func (c *CLI) writeOutput(path string, data []byte) error {
	if path == "" || path == stdinArg {
		_, err := c.stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// codecFor builds a transport codec for a compressor name.
func (c *CLI) codecFor(compression string) (*transport.Codec, error) {
	comp, err := transport.CompressorByName(strings.ToLower(compression))
	if err != nil {
		return nil, err
	}
	return transport.New(transport.WithCompressor(comp), transport.WithLogger(c.Logger)), nil
}
