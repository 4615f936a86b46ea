package core

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/DonovanMods/twlm/internal/domain"
	"github.com/DonovanMods/twlm/internal/pack"
)

// Options are the pre-launch toggles of one assembly
type Options struct {
	ScriptLogging  bool
	SkipIntro      bool
	MergeAllMods   bool
	UnitMultiplier float64 // 0 and 1 both mean unchanged
}

const (
	scriptLoggingPath = "script/enable_console_logging"
	unitScaleTable    = "unit_size_global_scalings_tables"
)

var introMoviePaths = []string{
	"movies/gam_int.ca_vp8",
	"movies/startup_movie_01.ca_vp8",
	"movies/startup_movie_02.ca_vp8",
	"movies/startup_movie_03.ca_vp8",
}

var epilepsyWarningLanguages = []string{"br", "cn", "cz", "de", "en", "es", "fr", "it", "kr", "pl", "ru", "tr", "zh"}

// emptyMovie returns a valid, zero-length CA VP8 video used to replace intros.
func emptyMovie() []byte {
	prefix := []byte{
		0x43, 0x41, 0x4d, 0x56, 0x01, 0x00, 0x29, 0x00, 0x56, 0x50, 0x38, 0x30, 0x80, 0x02, 0xe0, 0x01, 0x55, 0x55,
		0x85, 0x42, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x4a, 0x02, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
		0x21, 0x02, 0x00, 0x00, 0x00, 0x50, 0x42, 0x00, 0x9d, 0x01, 0x2a, 0x80, 0x02, 0xe0, 0x01, 0x00, 0x47, 0x08,
		0x85, 0x85, 0x88, 0x85, 0x84, 0x88, 0x02, 0x02, 0x00, 0x06, 0x16, 0x04, 0xf7, 0x06, 0x81, 0x64, 0x9f, 0x6b,
		0xdb, 0x9b,
	}
	suffix := []byte{
		0x27, 0x37, 0x80, 0xfe, 0xff, 0xab, 0x50, 0x80, 0x29, 0x00, 0x00, 0x00, 0x21, 0x02, 0x00, 0x00, 0x01,
	}
	out := make([]byte, 0, 595)
	out = append(out, prefix...)
	out = append(out, bytes.Repeat([]byte{0x27, 0x38, 0x7b}, 168)...)
	return append(out, suffix...)
}

// transformContext is what a transform may read and write
type transformContext struct {
	game      *domain.Game
	caps      domain.Capabilities
	opts      Options
	hasSchema bool
	reserved  *pack.Pack
}

// transform is one pre-launch patch. It must be a no-op when the game does
// not support it or the toggle is off.
type transform struct {
	name    string
	enabled func(tc *transformContext) bool
	apply   func(ctx context.Context, tc *transformContext) error
}

var transforms = []transform{
	{
		name:    "script logging",
		enabled: func(tc *transformContext) bool { return tc.caps.ScriptLogging && tc.opts.ScriptLogging },
		apply: func(_ context.Context, tc *transformContext) error {
			tc.reserved.Insert(scriptLoggingPath, []byte{})
			return nil
		},
	},
	{
		name:    "skip intro",
		enabled: func(tc *transformContext) bool { return tc.caps.SkipIntro && tc.opts.SkipIntro },
		apply: func(_ context.Context, tc *transformContext) error {
			movie := emptyMovie()
			for _, p := range introMoviePaths {
				tc.reserved.Insert(p, movie)
			}
			for _, lang := range epilepsyWarningLanguages {
				tc.reserved.Insert(fmt.Sprintf("movies/epilepsy_warning/epilepsy_warning_%s.ca_vp8", lang), movie)
			}
			return nil
		},
	},
	{
		name: "unit multiplier",
		enabled: func(tc *transformContext) bool {
			m := tc.opts.UnitMultiplier
			return tc.caps.UnitMultiplier && tc.hasSchema && m > 0 && m != 1.0
		},
		apply: func(_ context.Context, tc *transformContext) error {
			tc.reserved.Insert("db/"+unitScaleTable+"/twlm_unit_multiplier.tsv", unitScaleTSV(tc.opts.UnitMultiplier))
			return nil
		},
	},
}

// unitScaleTSV renders the table override in the TSV layout the codec
// converts to a binary table when a schema is loaded.
func unitScaleTSV(multiplier float64) []byte {
	var b bytes.Buffer
	b.WriteString("key\tunit_scale\n")
	fmt.Fprintf(&b, "#%s;0;db/%s/twlm_unit_multiplier\n", unitScaleTable, unitScaleTable)
	for _, size := range []string{"small", "medium", "large", "very_large"} {
		b.WriteString(size)
		b.WriteByte('\t')
		b.WriteString(strconv.FormatFloat(multiplier, 'f', -1, 64))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// anyTransform reports whether some transform will add to the reserved pack
func anyTransform(tc *transformContext) bool {
	for _, t := range transforms {
		if t.enabled(tc) {
			return true
		}
	}
	return false
}

// applyTransforms runs the enabled transforms in order, stopping at the first error
func applyTransforms(ctx context.Context, tc *transformContext) error {
	for _, t := range transforms {
		if !t.enabled(tc) {
			continue
		}
		if err := t.apply(ctx, tc); err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}
	}
	return nil
}
