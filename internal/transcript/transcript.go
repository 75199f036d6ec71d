// Package transcript holds the caption data model: timed text segments,
// the on-disk transcript layout and the timing heuristics the dub step
// relies on.
package transcript

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
)

// Segment is one timed caption line. Times are in seconds.
type Segment struct {
	Text     string
	Start    float64
	Duration float64
}

func (s Segment) End() float64 { return s.Start + s.Duration }

// wordsPerSecond is a conversational speaking pace (~168 words/minute).
const wordsPerSecond = 2.8

// estimateSpeech guesses how long the text takes to say out loud.
func estimateSpeech(text string) float64 {
	return float64(len(strings.Fields(text))) / wordsPerSecond
}

// Normalize prepares segments for dubbing: drops empty ones, sorts by
// start, and fills missing durations from the gap to the next segment
// (last one gets a word-count estimate).
func Normalize(segments []Segment) []Segment {
	clean := make([]Segment, 0, len(segments))
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		clean = append(clean, Segment{
			Text:     text,
			Start:    math.Max(0, s.Start),
			Duration: math.Max(0, s.Duration),
		})
	}
	sort.SliceStable(clean, func(i, j int) bool { return clean[i].Start < clean[j].Start })

	for i := range clean {
		if clean[i].Duration > 0 {
			continue
		}
		if i+1 < len(clean) {
			clean[i].Duration = math.Max(0.15, clean[i+1].Start-clean[i].Start)
		} else {
			clean[i].Duration = math.Max(0.6, estimateSpeech(clean[i].Text))
		}
	}
	return clean
}

// TotalSpan is the end of the last known speech plus a small tail, the
// length of the silence canvas the dub is mixed onto.
func TotalSpan(segments []Segment) float64 {
	var end float64
	for _, s := range segments {
		end = math.Max(end, s.End())
	}
	return end + 1.0
}

const ruleWidth = 60

// Save writes segments in the transcript text layout consumed by ParseFile:
// a two-line header, a rule of equals signs, then one timed line per
// segment.
func Save(path, title, languageLabel string, segments []Segment) error {
	var b strings.Builder
	b.WriteString("Transcrição: " + title + "\n")
	b.WriteString("Idioma: " + languageLabel + "\n")
	writeBody(&b, segments)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// SaveTranslated writes the Portuguese translation variant, which carries a
// fixed header line instead of title and language.
func SaveTranslated(path string, segments []Segment) error {
	var b strings.Builder
	b.WriteString("Transcrição Traduzida para Português (PT-BR)\n")
	writeBody(&b, segments)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func writeBody(b *strings.Builder, segments []Segment) {
	b.WriteString(strings.Repeat("=", ruleWidth) + "\n\n")
	for _, s := range segments {
		fmt.Fprintf(b, "[%.2fs - %.2fs] %s\n", s.Start, s.End(), s.Text)
	}
}
