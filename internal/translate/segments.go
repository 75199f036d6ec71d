package translate

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tubetool/internal/transcript"
)

// Segments translates each segment's text while keeping its timing. A
// failed line keeps its original text so one bad request never loses the
// whole transcript.
func Segments(ctx context.Context, tr Translator, segments []transcript.Segment) []transcript.Segment {
	out := make([]transcript.Segment, len(segments))
	for i, seg := range segments {
		out[i] = seg
		if ctx.Err() != nil {
			continue
		}
		translated, err := tr.Translate(ctx, seg.Text)
		if err != nil {
			log.WithError(err).WithField("segment", i).Warn("translation failed, keeping original text")
			continue
		}
		if translated != "" {
			out[i].Text = translated
		}
	}
	return out
}
