package steam

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// VDFMap is a parsed Valve KeyValues block: nested maps and string values.
type VDFMap map[string]interface{}

// Map returns the nested block at key, or nil.
func (m VDFMap) Map(key string) VDFMap {
	v, _ := m[key].(VDFMap)
	return v
}

// String returns the string value at key, or "".
func (m VDFMap) String(key string) string {
	v, _ := m[key].(string)
	return v
}

// ParseVDF reads Valve KeyValues text from r and returns the root map.
func ParseVDF(r io.Reader) (VDFMap, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	scanner.Split(scanVDFTokens)
	var tokens []string
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading vdf: %w", err)
	}

	pos := 0
	root, err := parseVDFObject(tokens, &pos, false)
	if err != nil {
		return nil, err
	}
	return root, nil
}

// parseVDFObject parses key/value pairs until "}" (nested) or the end of input (root).
func parseVDFObject(tokens []string, pos *int, nested bool) (VDFMap, error) {
	result := make(VDFMap)
	for *pos < len(tokens) {
		key := tokens[*pos]
		if key == "}" {
			if !nested {
				return nil, fmt.Errorf("vdf: unexpected }")
			}
			*pos++
			return result, nil
		}
		*pos++
		if *pos >= len(tokens) {
			return nil, fmt.Errorf("vdf: unexpected end after key %q", key)
		}
		if tokens[*pos] == "{" {
			*pos++
			inner, err := parseVDFObject(tokens, pos, true)
			if err != nil {
				return nil, err
			}
			result[key] = inner
			continue
		}
		result[key] = tokens[*pos]
		*pos++
	}
	if nested {
		return nil, fmt.Errorf("vdf: unclosed block")
	}
	return result, nil
}

// scanVDFTokens splits on quoted strings, bare words and the braces.
// Line comments starting with // are skipped.
func scanVDFTokens(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for {
		for start < len(data) && unicode.IsSpace(rune(data[start])) {
			start++
		}
		if start+1 < len(data) && data[start] == '/' && data[start+1] == '/' {
			nl := strings.IndexByte(string(data[start:]), '\n')
			if nl < 0 {
				if atEOF {
					return len(data), nil, nil
				}
				return 0, nil, nil
			}
			start += nl + 1
			continue
		}
		break
	}
	if start >= len(data) {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}
	data = data[start:]

	switch data[0] {
	case '"':
		for i := 1; i < len(data); i++ {
			if data[i] == '\\' && i+1 < len(data) {
				i++
				continue
			}
			if data[i] == '"' {
				return start + i + 1, unescapeVDF(data[1:i]), nil
			}
		}
		if atEOF {
			return 0, nil, fmt.Errorf("vdf: unclosed quote")
		}
		return 0, nil, nil
	case '{', '}':
		return start + 1, data[0:1], nil
	}

	i := 0
	for i < len(data) && !unicode.IsSpace(rune(data[i])) && data[i] != '"' && data[i] != '{' && data[i] != '}' {
		i++
	}
	if i == len(data) && !atEOF {
		return 0, nil, nil
	}
	return start + i, data[:i], nil
}

func unescapeVDF(b []byte) []byte {
	if !strings.ContainsRune(string(b), '\\') {
		return b
	}
	r := strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\t`, "\t")
	return []byte(r.Replace(string(b)))
}

// getLibraryPaths extracts library paths from a parsed libraryfolders.vdf
// root. Entries are keyed "0", "1", ... and visited in numeric order.
func getLibraryPaths(root VDFMap) []string {
	lf := root.Map("libraryfolders")
	if lf == nil {
		return nil
	}
	var keys []int
	for k := range lf {
		if n, err := strconv.Atoi(k); err == nil {
			keys = append(keys, n)
		}
	}
	sort.Ints(keys)

	var paths []string
	for _, k := range keys {
		if p := lf.Map(strconv.Itoa(k)).String("path"); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// AppManifest holds parsed fields from an appmanifest_*.acf file.
type AppManifest struct {
	AppID      string
	Name       string
	InstallDir string
}

// ParseAppManifest parses appmanifest_*.acf content.
func ParseAppManifest(data string) (AppManifest, error) {
	root, err := ParseVDF(strings.NewReader(data))
	if err != nil {
		return AppManifest{}, err
	}
	state := root.Map("AppState")
	if state == nil {
		return AppManifest{}, fmt.Errorf("vdf: missing AppState")
	}
	return AppManifest{
		AppID:      state.String("appid"),
		Name:       state.String("name"),
		InstallDir: state.String("installdir"),
	}, nil
}

// ParseWorkshopManifest returns the Workshop item ids recorded in an
// appworkshop_<appid>.acf file.
func ParseWorkshopManifest(data string) ([]string, error) {
	root, err := ParseVDF(strings.NewReader(data))
	if err != nil {
		return nil, err
	}
	state := root.Map("AppWorkshop")
	if state == nil {
		return nil, fmt.Errorf("vdf: missing AppWorkshop")
	}
	installed := state.Map("WorkshopItemsInstalled")
	ids := make([]string, 0, len(installed))
	for id := range installed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
