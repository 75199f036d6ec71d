package transcript

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// json3 is the caption payload YouTube serves for the json3 subtitle
// format. Only the fields we consume are mapped.
type json3Doc struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMs    int64      `json:"tStartMs"`
	DurationMs int64      `json:"dDurationMs"`
	Append     int        `json:"aAppend"`
	Segs       []json3Seg `json:"segs"`
}

type json3Seg struct {
	UTF8 string `json:"utf8"`
}

// ParseJSON3 decodes a json3 caption document into segments. Window and
// append events carry no new speech and are skipped.
func ParseJSON3(data []byte) ([]Segment, error) {
	var doc json3Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode json3 captions")
	}
	segments := make([]Segment, 0, len(doc.Events))
	for _, ev := range doc.Events {
		if ev.Append == 1 || len(ev.Segs) == 0 {
			continue
		}
		var b strings.Builder
		for _, seg := range ev.Segs {
			b.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " "))
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:     text,
			Start:    float64(ev.StartMs) / 1000,
			Duration: float64(ev.DurationMs) / 1000,
		})
	}
	return segments, nil
}
