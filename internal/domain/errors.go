package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrModNotFound      = fmt.Errorf("mod %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrProfileNotFound  = fmt.Errorf("profile %w", ErrNotFound)
	ErrGameNotFound     = fmt.Errorf("game %w", ErrNotFound)
	ErrDuplicateName    = errors.New("duplicate name")
	ErrReservedName     = fmt.Errorf("%w: reserved category name", ErrDuplicateName)
	ErrBusy             = errors.New("another operation is in progress")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnsupported      = errors.New("not supported for this game")
	ErrAuthRequired     = errors.New("authentication required")
)

// IOError wraps a filesystem failure with the path that caused it.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError reports malformed persisted or shareable text. Line is 1-based; 0 means unknown.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return "parse error: " + e.Msg
	}
	return fmt.Sprintf("parse error on line %d (%q): %s", e.Line, e.Text, e.Msg)
}

// MissingModError is returned by assembly when a mod's backing file is gone.
type MissingModError struct {
	ID   string
	Path string
}

func (e *MissingModError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("mod %s has no backing file", e.ID)
	}
	return fmt.Sprintf("mod %s: backing file %s is missing or unreadable", e.ID, e.Path)
}

func (e *MissingModError) Is(target error) bool {
	return target == ErrModNotFound
}

// CodecError wraps a failure of the package codec. It is never swallowed.
type CodecError struct {
	Op   string
	Path string
	Err  error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("pack %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// AssemblyError reports the first failing step of a pack assembly.
type AssemblyError struct {
	Step string
	Err  error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly failed at %s: %v", e.Step, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }
