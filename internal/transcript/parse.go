package transcript

import (
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

var (
	rangeLine = regexp.MustCompile(`^\[(\d+(?:\.\d+)?)s\s*-\s*(\d+(?:\.\d+)?)s\]\s*(.*)$`)
	startLine = regexp.MustCompile(`^\[(\d+(?:\.\d+)?)s\]\s*(.*)$`)
	ruleLine  = regexp.MustCompile(`^={10,}$`)
)

// ParseFile reads a transcript saved by Save (or SaveTranslated) back into
// segments. Lines above the rule of equals signs are header metadata.
// Timed lines keep their own windows; untimed text is split into sentences
// with estimated timing so old transcripts without stamps still dub.
func ParseFile(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read transcript")
	}
	body := transcriptBody(string(data))
	if segments := parseTimed(body); len(segments) > 0 {
		return segments, nil
	}
	return parsePlain(body), nil
}

// transcriptBody keeps the non-empty lines after the header rule.
func transcriptBody(content string) []string {
	var body []string
	inBody := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !inBody {
			inBody = ruleLine.MatchString(line)
			continue
		}
		if line != "" {
			body = append(body, line)
		}
	}
	return body
}

func parseTimed(body []string) []Segment {
	var segments []Segment
	pending := map[int]bool{}
	for _, line := range body {
		if m := rangeLine.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[3])
			if text == "" {
				continue
			}
			start := parseSeconds(m[1])
			end := parseSeconds(m[2])
			segments = append(segments, Segment{
				Text:     text,
				Start:    start,
				Duration: math.Max(0.2, end-start),
			})
			continue
		}
		if m := startLine.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[2])
			if text == "" {
				continue
			}
			pending[len(segments)] = true
			segments = append(segments, Segment{Text: text, Start: parseSeconds(m[1])})
		}
	}
	for i := range segments {
		if !pending[i] {
			continue
		}
		if i+1 < len(segments) {
			segments[i].Duration = math.Max(0.2, segments[i+1].Start-segments[i].Start)
		} else {
			segments[i].Duration = estimateLine(segments[i].Text)
		}
	}
	return segments
}

// parsePlain turns free text into sequential sentence segments.
func parsePlain(body []string) []Segment {
	text := strings.TrimSpace(strings.Join(body, " "))
	if text == "" {
		return nil
	}
	var segments []Segment
	cursor := 0.0
	for _, sentence := range splitSentences(text) {
		dur := estimateLine(sentence)
		segments = append(segments, Segment{Text: sentence, Start: cursor, Duration: dur})
		cursor += dur
	}
	return segments
}

// splitSentences breaks text after sentence punctuation followed by a
// space. Text without punctuation comes back as a single sentence.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func estimateLine(text string) float64 {
	return math.Max(1.2, estimateSpeech(text))
}

func parseSeconds(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
