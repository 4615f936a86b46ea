package pack

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/logger"

	"go.uber.org/zap"
)

// runFunc runs an external command and returns its combined output
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// RPFMCodec drives rpfm_cli. Entries ending in .tsv are converted to binary
// tables when a schema is configured.
type RPFMCodec struct {
	bin     string
	game    string
	schema  string
	tempDir string
	log     *zap.Logger
	run     runFunc
}

// NewRPFMCodec creates a codec for the given rpfm_cli binary and game family.
// schemaPath may be empty.
func NewRPFMCodec(bin string, family domain.Family, schemaPath string, log *zap.Logger) *RPFMCodec {
	log = logger.OrNop(log)
	return &RPFMCodec{
		bin:    bin,
		game:   family.String(),
		schema: schemaPath,
		log:    log,
		run:    execRun,
	}
}

// HasSchema reports whether table entries can be encoded
func (c *RPFMCodec) HasSchema() bool {
	return c.schema != ""
}

func (c *RPFMCodec) exec(ctx context.Context, op, path string, args ...string) error {
	full := append([]string{"--game", c.game, "pack"}, args...)
	c.log.Debug("running rpfm_cli", zap.String("op", op), zap.Strings("args", full))

	out, err := c.run(ctx, c.bin, full...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return &domain.CodecError{Op: op, Path: path, Err: err}
	}
	return nil
}

// Read extracts a pack into memory
func (c *RPFMCodec) Read(ctx context.Context, path string) (*Pack, error) {
	t, err := ReadType(path)
	if err != nil {
		return nil, &domain.CodecError{Op: "read", Path: path, Err: err}
	}

	dir, err := os.MkdirTemp(c.tempDir, "twlm-extract-")
	if err != nil {
		return nil, &domain.CodecError{Op: "read", Path: path, Err: err}
	}
	defer os.RemoveAll(dir)

	if err := c.exec(ctx, "read", path, "extract", "--pack-path", path, "--folder-path", "/;"+dir); err != nil {
		return nil, err
	}

	p := New(t)
	err = filepath.WalkDir(dir, func(file string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		p.Insert(filepath.ToSlash(rel), content)
		return nil
	})
	if err != nil {
		return nil, &domain.CodecError{Op: "read", Path: path, Err: err}
	}
	return p, nil
}

// Write creates a pack at path from p's entries
func (c *RPFMCodec) Write(ctx context.Context, path string, p *Pack) error {
	if err := c.exec(ctx, "write", path, "create", "--pack-path", path); err != nil {
		return err
	}
	if len(p.Entries) == 0 {
		return nil
	}
	return c.Append(ctx, path, p.Entries)
}

// Append adds entries to the pack at path
func (c *RPFMCodec) Append(ctx context.Context, path string, entries Entries) error {
	dir, err := os.MkdirTemp(c.tempDir, "twlm-add-")
	if err != nil {
		return &domain.CodecError{Op: "append", Path: path, Err: err}
	}
	defer os.RemoveAll(dir)

	for name, content := range entries {
		file := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return &domain.CodecError{Op: "append", Path: path, Err: err}
		}
		if err := os.WriteFile(file, content, 0644); err != nil {
			return &domain.CodecError{Op: "append", Path: path, Err: err}
		}
	}

	args := []string{"add", "--pack-path", path, "--folder-path", dir + ";/"}
	if c.schema != "" {
		args = append(args, "--tsv-to-binary", c.schema)
	}
	return c.exec(ctx, "append", path, args...)
}

// Merge combines srcs into a new pack at dst
func (c *RPFMCodec) Merge(ctx context.Context, dst string, srcs []string) error {
	args := []string{"merge", "--save-pack-path", dst, "--source-pack-paths"}
	args = append(args, srcs...)
	return c.exec(ctx, "merge", dst, args...)
}
