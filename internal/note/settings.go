package note

// Summary formats understood by the summarizer.
const (
	SummaryBullet    = "bullet"
	SummaryParagraph = "paragraph"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Colors are the user's custom palette.
type Colors struct {
	Primary    string `json:"primary"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// Settings is the flat settings record. Absent fields fall back to DefaultSettings.
type Settings struct {
	DocTitleFormat string `json:"doc_title_format"`
	Language       string `json:"language"`
	SummaryFormat  string `json:"summary_format"`
	Theme          string `json:"theme"`
	FontSize       int    `json:"font_size"`
	APIKey         string `json:"api_key"`
	RecordAudio    bool   `json:"record_audio"`
	SilenceTimeout int    `json:"silence_timeout"`
	CustomColors   Colors `json:"custom_colors"`

	// VADEnabled gates voice-activity detection; when off, recognition runs continuously.
	VADEnabled *bool `json:"vad_enabled,omitempty"`

	// DiarizationEnabled gates the speaker-alternation heuristic and speaker labels.
	DiarizationEnabled *bool `json:"diarization_enabled,omitempty"`

	// SpeakerChangeThresholdMS is the silence gap after which the next utterance flips speaker.
	SpeakerChangeThresholdMS int `json:"speaker_change_threshold_ms,omitempty"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	on := true
	diar := true
	return Settings{
		DocTitleFormat: "[YYYY-MM-DD] Voice memo",
		Language:       "ko-KR",
		SummaryFormat:  SummaryBullet,
		Theme:          ThemeLight,
		FontSize:       16,
		SilenceTimeout: 30,
		CustomColors: Colors{
			Primary:    "#6200EE",
			Background: "#F0F2F5",
			Text:       "#212121",
		},
		VADEnabled:               &on,
		DiarizationEnabled:       &diar,
		SpeakerChangeThresholdMS: 2000,
	}
}

// VAD reports whether voice-activity detection is enabled.
func (s Settings) VAD() bool {
	return s.VADEnabled == nil || *s.VADEnabled
}

// Diarization reports whether speaker alternation is enabled.
func (s Settings) Diarization() bool {
	return s.DiarizationEnabled == nil || *s.DiarizationEnabled
}

// MergeSettings overlays stored values on defaults. Zero values in overlay keep the default,
// except RecordAudio and APIKey which are taken as stored.
func MergeSettings(base, overlay Settings) Settings {
	out := base
	if overlay.DocTitleFormat != "" {
		out.DocTitleFormat = overlay.DocTitleFormat
	}
	if overlay.Language != "" {
		out.Language = overlay.Language
	}
	if overlay.SummaryFormat != "" {
		out.SummaryFormat = overlay.SummaryFormat
	}
	if overlay.Theme != "" {
		out.Theme = overlay.Theme
	}
	if overlay.FontSize != 0 {
		out.FontSize = overlay.FontSize
	}
	if overlay.SilenceTimeout != 0 {
		out.SilenceTimeout = overlay.SilenceTimeout
	}
	if overlay.CustomColors.Primary != "" {
		out.CustomColors.Primary = overlay.CustomColors.Primary
	}
	if overlay.CustomColors.Background != "" {
		out.CustomColors.Background = overlay.CustomColors.Background
	}
	if overlay.CustomColors.Text != "" {
		out.CustomColors.Text = overlay.CustomColors.Text
	}
	if overlay.VADEnabled != nil {
		v := *overlay.VADEnabled
		out.VADEnabled = &v
	}
	if overlay.DiarizationEnabled != nil {
		v := *overlay.DiarizationEnabled
		out.DiarizationEnabled = &v
	}
	if overlay.SpeakerChangeThresholdMS != 0 {
		out.SpeakerChangeThresholdMS = overlay.SpeakerChangeThresholdMS
	}
	out.APIKey = overlay.APIKey
	out.RecordAudio = overlay.RecordAudio
	return out
}
