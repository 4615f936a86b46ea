// Package pack is the boundary to the game's package (.pack) format. The
// format itself is handled by an external codec; this package only knows
// how to call it and how to read the file header.
package pack

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/DonovanMods/twlm/internal/domain"
)

// Entries maps a path inside a pack, e.g. "script/enable_console_logging", to its content.
type Entries map[string][]byte

// Paths returns the entry paths in lexical order
func (e Entries) Paths() []string {
	paths := make([]string, 0, len(e))
	for p := range e {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Pack is an in-memory package
type Pack struct {
	Type    domain.PackType
	Entries Entries
}

// New returns an empty pack of the given type
func New(t domain.PackType) *Pack {
	return &Pack{Type: t, Entries: make(Entries)}
}

// Insert adds or replaces an entry
func (p *Pack) Insert(path string, content []byte) {
	if p.Entries == nil {
		p.Entries = make(Entries)
	}
	p.Entries[path] = content
}

// Codec reads and writes packs for one game family
type Codec interface {
	Read(ctx context.Context, path string) (*Pack, error)
	Write(ctx context.Context, path string, p *Pack) error
	// Append adds entries to an existing pack
	Append(ctx context.Context, path string, entries Entries) error
	// Merge writes one pack at dst holding the entries of srcs; later sources win
	Merge(ctx context.Context, dst string, srcs []string) error
}

// Header magics of the supported pack versions
var magics = map[string]bool{
	"PFH0": true, // Empire, Napoleon
	"PFH2": true, // Shogun 2
	"PFH3": true, // Shogun 2
	"PFH4": true, // Rome 2 to Warhammer 2
	"PFH5": true, // Three Kingdoms, Troy, Warhammer 3
	"PFH6": true, // Pharaoh
}

// ErrNotAPack is returned for files without a pack header
var ErrNotAPack = errors.New("not a pack file")

// headerTypeMask keeps the pack type bits of the header flags
const headerTypeMask = 0xF

// ReadType reads the pack type from the file header.
func ReadType(path string) (domain.PackType, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.PackMod, &domain.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	var header [8]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return domain.PackMod, fmt.Errorf("%s: %w", path, ErrNotAPack)
	}
	return ParseHeader(header[:])
}

// ParseHeader decodes the pack type from the first 8 bytes of a pack.
func ParseHeader(header []byte) (domain.PackType, error) {
	if len(header) < 8 || !magics[string(header[:4])] {
		return domain.PackMod, ErrNotAPack
	}
	switch binary.LittleEndian.Uint32(header[4:8]) & headerTypeMask {
	case 0:
		return domain.PackBoot, nil
	case 1:
		return domain.PackRelease, nil
	case 2:
		return domain.PackPatch, nil
	case 4:
		return domain.PackMovie, nil
	default:
		return domain.PackMod, nil
	}
}

// EncodeHeader returns a PFH5 header for t. Used by codecs that write packs themselves.
func EncodeHeader(t domain.PackType) []byte {
	var flags uint32
	switch t {
	case domain.PackBoot:
		flags = 0
	case domain.PackRelease:
		flags = 1
	case domain.PackPatch:
		flags = 2
	case domain.PackMovie:
		flags = 4
	default:
		flags = 3
	}
	header := make([]byte, 8)
	copy(header, "PFH5")
	binary.LittleEndian.PutUint32(header[4:], flags)
	return header
}
