package pipeline

// Option keys shared by the HTTP API payload and the bot's toggle
// callbacks.
const (
	OptTranscript   = "transcricao"
	OptDownload720  = "download_720"
	OptDownload1080 = "download_1080"
	OptTranslate    = "traducao_pt"
	OptEnhance      = "melhoria_audio"
	OptDub          = "dublagem_pt"
)

// ToggleOrder is the canonical option order for menus. Translation is not
// listed: it rides along with the transcript step.
var ToggleOrder = []string{OptTranscript, OptDownload720, OptDownload1080, OptEnhance, OptDub}

// Options selects the steps a job runs. The zero value disables
// everything; callers usually start from DefaultOptions.
type Options struct {
	Transcript    bool
	Download720   bool
	Download1080  bool
	TranslatePT   bool
	EnhanceAudio  bool
	DubPortuguese bool
}

func DefaultOptions() Options {
	return Options{
		Transcript:    true,
		Download720:   true,
		Download1080:  true,
		TranslatePT:   true,
		EnhanceAudio:  true,
		DubPortuguese: true,
	}
}

// Enabled reports whether the keyed option is on. Unknown keys are off.
func (o Options) Enabled(key string) bool {
	switch key {
	case OptTranscript:
		return o.Transcript
	case OptDownload720:
		return o.Download720
	case OptDownload1080:
		return o.Download1080
	case OptTranslate:
		return o.TranslatePT
	case OptEnhance:
		return o.EnhanceAudio
	case OptDub:
		return o.DubPortuguese
	}
	return false
}

// Set turns the keyed option on or off, reporting whether the key is
// known.
func (o *Options) Set(key string, on bool) bool {
	switch key {
	case OptTranscript:
		o.Transcript = on
	case OptDownload720:
		o.Download720 = on
	case OptDownload1080:
		o.Download1080 = on
	case OptTranslate:
		o.TranslatePT = on
	case OptEnhance:
		o.EnhanceAudio = on
	case OptDub:
		o.DubPortuguese = on
	default:
		return false
	}
	return true
}

// Toggle flips the keyed option, reporting whether the key is known.
func (o *Options) Toggle(key string) bool {
	return o.Set(key, !o.Enabled(key))
}

// StepCount is how many numbered progress steps the selection produces.
func (o Options) StepCount() int {
	n := 0
	for _, key := range ToggleOrder {
		if o.Enabled(key) {
			n++
		}
	}
	return n
}
