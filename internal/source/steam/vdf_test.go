package steam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVDF_LibraryFolders(t *testing.T) {
	vdf := `
"libraryfolders"
{
	"0"
	{
		"path"		"/home/user/.steam/steam"
		"label"		""
	}
	"1"
	{
		"path"		"/mnt/games/steam"
		"label"		"Games"
	}
}
`
	root, err := ParseVDF(strings.NewReader(vdf))
	require.NoError(t, err)
	lf := root.Map("libraryfolders")
	require.NotNil(t, lf)
	assert.Equal(t, "/home/user/.steam/steam", lf.Map("0").String("path"))
	assert.Equal(t, "/mnt/games/steam", lf.Map("1").String("path"))
	assert.Equal(t, "Games", lf.Map("1").String("label"))
}

func TestGetLibraryPaths_NumericOrderWithGaps(t *testing.T) {
	vdf := `
"libraryfolders"
{
	"contentstatsid"	"-123"
	"10"	{ "path" "/mnt/ten" }
	"0"	{ "path" "/home/user/.steam/steam" }
	"2"	{ "path" "/mnt/two" }
}
`
	root, err := ParseVDF(strings.NewReader(vdf))
	require.NoError(t, err)
	assert.Equal(t, []string{"/home/user/.steam/steam", "/mnt/two", "/mnt/ten"}, getLibraryPaths(root))
}

func TestParseVDF_CommentsAndEscapes(t *testing.T) {
	vdf := `
// written by steam
"AppState"
{
	"name"	"Total War: \"WARHAMMER\" III"	// trailing comment
	"path"	"C:\\Games"
}
`
	root, err := ParseVDF(strings.NewReader(vdf))
	require.NoError(t, err)
	state := root.Map("AppState")
	assert.Equal(t, `Total War: "WARHAMMER" III`, state.String("name"))
	assert.Equal(t, `C:\Games`, state.String("path"))
}

func TestParseAppManifest(t *testing.T) {
	acf := `
"AppState"
{
	"appid"		"1142710"
	"name"		"Total War: WARHAMMER III"
	"installdir"		"Total War WARHAMMER III"
}
`
	m, err := ParseAppManifest(acf)
	require.NoError(t, err)
	assert.Equal(t, "1142710", m.AppID)
	assert.Equal(t, "Total War: WARHAMMER III", m.Name)
	assert.Equal(t, "Total War WARHAMMER III", m.InstallDir)
}

func TestParseAppManifest_MissingState(t *testing.T) {
	_, err := ParseAppManifest(`"Other" { "a" "b" }`)
	assert.Error(t, err)
}

func TestParseWorkshopManifest(t *testing.T) {
	acf := `
"AppWorkshop"
{
	"appid"		"1142710"
	"WorkshopItemsInstalled"
	{
		"2856936614"	{ "size" "1024" "timeupdated" "1700000000" }
		"2789857593"	{ "size" "2048" "timeupdated" "1690000000" }
	}
}
`
	ids, err := ParseWorkshopManifest(acf)
	require.NoError(t, err)
	assert.Equal(t, []string{"2789857593", "2856936614"}, ids)
}

func TestParseVDF_Malformed(t *testing.T) {
	tests := []struct {
		name string
		vdf  string
		want string
	}{
		{"key without value", `"libraryfolders"`, "unexpected end after key"},
		{"unclosed block", `"a" { "b" "c"`, "unclosed block"},
		{"stray brace", `}`, "unexpected }"},
		{"unclosed quote", `"a" "b`, "unclosed quote"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVDF(strings.NewReader(tt.vdf))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
