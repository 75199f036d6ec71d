package transcript

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestParseJSON3(t *testing.T) {
	t.Parallel()

	payload := `{"wireMagic":"pb3","events":[
		{"tStartMs":0,"dDurationMs":2500,"segs":[{"utf8":"Hello"},{"utf8":" world"}]},
		{"tStartMs":2500,"dDurationMs":100,"aAppend":1,"segs":[{"utf8":"\n"}]},
		{"tStartMs":2600,"dDurationMs":1400,"segs":[{"utf8":"Second line"}]},
		{"tStartMs":4100,"dDurationMs":500,"segs":[{"utf8":"\n"}]}
	]}`

	segments, err := ParseJSON3([]byte(payload))
	if err != nil {
		t.Fatalf("ParseJSON3: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2: %+v", len(segments), segments)
	}
	if segments[0].Text != "Hello world" || !almostEqual(segments[0].Start, 0) || !almostEqual(segments[0].Duration, 2.5) {
		t.Errorf("unexpected first segment: %+v", segments[0])
	}
	if segments[1].Text != "Second line" || !almostEqual(segments[1].Start, 2.6) {
		t.Errorf("unexpected second segment: %+v", segments[1])
	}
}

func TestParseJSON3Rejects(t *testing.T) {
	t.Parallel()

	if _, err := ParseJSON3([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	in := []Segment{
		{Text: "b", Start: 4.0},
		{Text: "   ", Start: 1, Duration: 1},
		{Text: "a", Start: 0, Duration: 2},
		{Text: "c", Start: 4.1},
	}
	out := Normalize(in)
	if len(out) != 3 {
		t.Fatalf("got %d segments, want 3: %+v", len(out), out)
	}
	if out[0].Text != "a" || out[1].Text != "b" || out[2].Text != "c" {
		t.Fatalf("unexpected order: %+v", out)
	}
	if !almostEqual(out[0].Duration, 2) {
		t.Errorf("explicit duration changed: %v", out[0].Duration)
	}
	if !almostEqual(out[1].Duration, 0.15) {
		t.Errorf("gap fill: got %v, want floor 0.15", out[1].Duration)
	}
	if !almostEqual(out[2].Duration, 0.6) {
		t.Errorf("last estimate: got %v, want floor 0.6", out[2].Duration)
	}
}

func TestTotalSpan(t *testing.T) {
	t.Parallel()

	segments := []Segment{
		{Text: "a", Start: 0, Duration: 2},
		{Text: "b", Start: 4, Duration: 0.15},
	}
	if got := TotalSpan(segments); !almostEqual(got, 5.15) {
		t.Fatalf("got %v, want 5.15", got)
	}
}

func TestSaveAndParseRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "video_transcricao_original.txt")
	in := []Segment{
		{Text: "Olá mundo", Start: 0, Duration: 2.5},
		{Text: "Segunda linha", Start: 2.5, Duration: 3},
	}
	if err := Save(path, "Meu Vídeo", "Português (pt)", in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"Transcrição: Meu Vídeo\n",
		"Idioma: Português (pt)\n",
		strings.Repeat("=", 60) + "\n\n",
		"[0.00s - 2.50s] Olá mundo\n",
		"[2.50s - 5.50s] Segunda linha\n",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("output missing %q:\n%s", want, content)
		}
	}

	out, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d segments, want 2: %+v", len(out), out)
	}
	if out[0].Text != "Olá mundo" || !almostEqual(out[0].Start, 0) || !almostEqual(out[0].Duration, 2.5) {
		t.Errorf("unexpected first segment: %+v", out[0])
	}
	if out[1].Text != "Segunda linha" || !almostEqual(out[1].Start, 2.5) || !almostEqual(out[1].Duration, 3) {
		t.Errorf("unexpected second segment: %+v", out[1])
	}
}

func TestSaveTranslatedHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "video_transcricao_PT_traduzida.txt")
	if err := SaveTranslated(path, []Segment{{Text: "Oi", Start: 0, Duration: 1}}); err != nil {
		t.Fatalf("SaveTranslated: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(data), "Transcrição Traduzida para Português (PT-BR)\n") {
		t.Fatalf("unexpected header:\n%s", data)
	}
}

func TestParseFileStartOnlyStamps(t *testing.T) {
	t.Parallel()

	content := strings.Join([]string{
		"Transcrição: X",
		"Idioma: Y",
		strings.Repeat("=", 60),
		"",
		"[0.00s] Primeira frase",
		"[2.00s] Segunda frase",
		"[5.00s] Última frase com cinco palavras",
		"",
	}, "\n")
	path := filepath.Join(t.TempDir(), "t.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d segments, want 3: %+v", len(out), out)
	}
	if !almostEqual(out[0].Duration, 2) {
		t.Errorf("first duration: got %v, want 2 (gap to next)", out[0].Duration)
	}
	if !almostEqual(out[1].Duration, 3) {
		t.Errorf("second duration: got %v, want 3", out[1].Duration)
	}
	if want := 5.0 / wordsPerSecond; !almostEqual(out[2].Duration, want) {
		t.Errorf("last duration: got %v, want estimate %v", out[2].Duration, want)
	}
}

func TestParseFilePlainText(t *testing.T) {
	t.Parallel()

	content := strings.Join([]string{
		"Transcrição: X",
		"Idioma: Y",
		strings.Repeat("=", 60),
		"",
		"Primeira frase curta. Segunda frase um pouco maior! Terceira?",
	}, "\n")
	path := filepath.Join(t.TempDir(), "t.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d segments, want 3: %+v", len(out), out)
	}
	if out[0].Text != "Primeira frase curta." {
		t.Errorf("first sentence: %q", out[0].Text)
	}
	if !almostEqual(out[0].Start, 0) || !almostEqual(out[0].Duration, 1.2) {
		t.Errorf("first timing: %+v (short sentences floor at 1.2s)", out[0])
	}
	if !almostEqual(out[1].Start, 1.2) {
		t.Errorf("second start: got %v, want 1.2", out[1].Start)
	}
	wantDur := 5.0 / wordsPerSecond
	if !almostEqual(out[1].Duration, wantDur) {
		t.Errorf("second duration: got %v, want %v", out[1].Duration, wantDur)
	}
	if !almostEqual(out[2].Start, 1.2+wantDur) {
		t.Errorf("third start: got %v, want %v", out[2].Start, 1.2+wantDur)
	}
}

func TestParseFileWithoutRule(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "t.txt")
	if err := os.WriteFile(path, []byte("só texto sem cabeçalho\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no segments without a header rule, got %+v", out)
	}
}

func TestSplitSentences(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		in   string
		want []string
	}{
		{"Um. Dois! Três?", []string{"Um.", "Dois!", "Três?"}},
		{"Sem pontuação final", []string{"Sem pontuação final"}},
		{"Reticências... e depois. Fim", []string{"Reticências...", "e depois.", "Fim"}},
	} {
		got := splitSentences(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("splitSentences(%q) = %q, want %q", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitSentences(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}
