package translate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const googleEndpoint = "https://translate.googleapis.com/translate_a/single"

// Google translates through the keyless web endpoint. Results come back as
// a nested JSON array whose first element lists translated chunks.
type Google struct {
	client   *http.Client
	endpoint string
	target   string
}

func NewGoogle(target string) *Google {
	return &Google{
		client:   &http.Client{Timeout: 20 * time.Second},
		endpoint: googleEndpoint,
		target:   target,
	}
}

func (g *Google) Translate(ctx context.Context, text string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", "auto")
	query.Set("tl", g.target)
	query.Set("dt", "t")
	query.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", errors.Wrap(err, "build translate request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "call translate endpoint")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("translate endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read translate response")
	}
	return parseGooglePayload(body)
}

func parseGooglePayload(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", errors.Wrap(err, "decode translate response")
	}
	if len(payload) == 0 {
		return "", errors.New("empty translate response")
	}
	var chunks [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &chunks); err != nil {
		return "", errors.Wrap(err, "decode translate chunks")
	}
	var b strings.Builder
	for _, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(chunk[0], &part); err != nil {
			continue
		}
		b.WriteString(part)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("translate response held no text")
	}
	return out, nil
}
