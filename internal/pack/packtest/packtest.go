// Package packtest provides an in-memory pack codec for tests.
package packtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/pack"
)

// Codec keeps written packs in memory and writes a bare header to disk so
// staged files exist. Packs it never wrote are read as a single entry
// holding the raw file.
type Codec struct {
	mu    sync.Mutex
	packs map[string]*pack.Pack
	last  map[string]string

	// FailOn makes the named operation ("read", "write", "append", "merge") fail.
	FailOn map[string]error
	// Calls records operations in order as "<op> <base name>".
	Calls []string
}

// New returns an empty fake codec
func New() *Codec {
	return &Codec{
		packs:  make(map[string]*pack.Pack),
		last:   make(map[string]string),
		FailOn: make(map[string]error),
	}
}

// ByName returns the most recent pack written under the base name, wherever
// it was written. Useful when the directory was renamed after the write.
func (c *Codec) ByName(name string) (*pack.Pack, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	path, ok := c.last[name]
	if !ok {
		return nil, false
	}
	return c.packs[path], true
}

// Pack returns what was written at path
func (c *Codec) Pack(path string) (*pack.Pack, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.packs[path]
	return p, ok
}

func (c *Codec) record(op, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, op+" "+filepath.Base(path))
	if err, ok := c.FailOn[op]; ok {
		return &domain.CodecError{Op: op, Path: path, Err: err}
	}
	return nil
}

func (c *Codec) Read(_ context.Context, path string) (*pack.Pack, error) {
	if err := c.record("read", path); err != nil {
		return nil, err
	}
	if p, ok := c.Pack(path); ok {
		return clone(p), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.CodecError{Op: "read", Path: path, Err: err}
	}
	t, _ := pack.ParseHeader(data)
	p := pack.New(t)
	p.Insert(filepath.Base(path), data)
	return p, nil
}

func (c *Codec) Write(_ context.Context, path string, p *pack.Pack) error {
	if err := c.record("write", path); err != nil {
		return err
	}
	return c.store(path, clone(p))
}

func (c *Codec) Append(ctx context.Context, path string, entries pack.Entries) error {
	if err := c.record("append", path); err != nil {
		return err
	}
	p, ok := c.Pack(path)
	if !ok {
		return &domain.CodecError{Op: "append", Path: path, Err: fmt.Errorf("no such pack")}
	}
	p = clone(p)
	for name, content := range entries {
		p.Insert(name, content)
	}
	return c.store(path, p)
}

func (c *Codec) Merge(ctx context.Context, dst string, srcs []string) error {
	if err := c.record("merge", dst); err != nil {
		return err
	}
	merged := pack.New(domain.PackMod)
	for _, src := range srcs {
		p, ok := c.Pack(src)
		if !ok {
			data, err := os.ReadFile(src)
			if err != nil {
				return &domain.CodecError{Op: "merge", Path: src, Err: err}
			}
			p = pack.New(domain.PackMod)
			p.Insert(filepath.Base(src), data)
		}
		for name, content := range p.Entries {
			merged.Insert(name, content)
		}
	}
	return c.store(dst, merged)
}

func (c *Codec) store(path string, p *pack.Pack) error {
	if err := os.WriteFile(path, pack.EncodeHeader(p.Type), 0644); err != nil {
		return &domain.CodecError{Op: "write", Path: path, Err: err}
	}
	c.mu.Lock()
	c.packs[path] = p
	c.last[filepath.Base(path)] = path
	c.mu.Unlock()
	return nil
}

func clone(p *pack.Pack) *pack.Pack {
	out := pack.New(p.Type)
	for name, content := range p.Entries {
		out.Insert(name, append([]byte(nil), content...))
	}
	return out
}
