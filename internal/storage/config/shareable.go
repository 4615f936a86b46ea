package config

import (
	"bufio"
	"strings"

	"github.com/DonovanMods/twlm/internal/domain"
)

// MarshalShareable encodes a load order as one "<tag>:<identifier>:<0|1>"
// line per mod. The enabled suffix is always written, so the output is the
// canonical form of anything UnmarshalShareable accepts.
func MarshalShareable(list domain.ShareableModList) string {
	var b strings.Builder
	for _, m := range list {
		b.WriteString(string(m.Source))
		b.WriteByte(':')
		b.WriteString(m.Identifier)
		if m.Enabled {
			b.WriteString(":1\n")
		} else {
			b.WriteString(":0\n")
		}
	}
	return b.String()
}

// UnmarshalShareable parses the shareable grammar
//
//	<steam|local>:<identifier>[:<0|1>]
//
// Trailing whitespace and empty lines are ignored. A missing enabled suffix
// means enabled. The first malformed line fails the whole parse.
func UnmarshalShareable(text string) (domain.ShareableModList, error) {
	list := domain.ShareableModList{}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		mod, err := parseShareableLine(line)
		if err != nil {
			err.Line = lineNo
			err.Text = line
			return nil, err
		}
		list = append(list, mod)
	}
	if err := scanner.Err(); err != nil {
		return nil, &domain.ParseError{Line: lineNo + 1, Msg: err.Error()}
	}

	return list, nil
}

func parseShareableLine(line string) (domain.ShareableMod, *domain.ParseError) {
	tagStr, rest, ok := strings.Cut(line, ":")
	if !ok {
		return domain.ShareableMod{}, &domain.ParseError{Msg: "expected <source-tag>:<identifier>"}
	}

	tag, ok := domain.ParseSourceTag(tagStr)
	if !ok {
		return domain.ShareableMod{}, &domain.ParseError{Msg: "unknown source tag " + `"` + tagStr + `"`}
	}

	mod := domain.ShareableMod{Source: tag, Identifier: rest, Enabled: true}
	if i := strings.LastIndexByte(rest, ':'); i >= 0 {
		switch rest[i+1:] {
		case "1":
			mod.Identifier = rest[:i]
		case "0":
			mod.Identifier = rest[:i]
			mod.Enabled = false
		default:
			return domain.ShareableMod{}, &domain.ParseError{Msg: "enabled flag must be 0 or 1"}
		}
	}

	if mod.Identifier == "" {
		return domain.ShareableMod{}, &domain.ParseError{Msg: "empty identifier"}
	}
	if strings.ContainsAny(mod.Identifier, ":\t") {
		return domain.ShareableMod{}, &domain.ParseError{Msg: "identifier contains a separator"}
	}
	if tag == domain.SourceSteam && !isDigits(mod.Identifier) {
		return domain.ShareableMod{}, &domain.ParseError{Msg: "steam identifier must be numeric"}
	}

	return mod, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
