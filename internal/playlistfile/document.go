package playlistfile

import (
	"encoding/json"
	"strings"
	"time"

	"gazer/internal/settings"
	"gazer/internal/viewstate"
)

// Extension is the file extension of playlist files.
const Extension = ".gzpl"

// FormatVersion is written into every saved playlist.
const FormatVersion = "1.0"

// document is the on-disk layout of a .gzpl file. Field names are kept in
// PascalCase so files written by earlier Gazer releases load unchanged.
type document struct {
	Name         string      `json:"Name"`
	CreatedDate  Timestamp   `json:"CreatedDate"`
	ModifiedDate Timestamp   `json:"ModifiedDate"`
	Version      string      `json:"Version"`
	Items        []itemDoc   `json:"Items"`
	Settings     playbackDoc `json:"Settings"`
}

type itemDoc struct {
	FilePath     string    `json:"FilePath"`
	RelativePath string    `json:"RelativePath"`
	AddedDate    Timestamp `json:"AddedDate"`
	State        *stateDoc `json:"State"`
}

// stateDoc is the persisted form of a ViewState. Animation progress is not
// stored; a loaded image starts its effects from rest.
type stateDoc struct {
	ScaleX         float64  `json:"ScaleX"`
	ScaleY         float64  `json:"ScaleY"`
	TranslateX     float64  `json:"TranslateX"`
	TranslateY     float64  `json:"TranslateY"`
	BaseTranslateX *float64 `json:"BaseTranslateX,omitempty"`
	BaseTranslateY *float64 `json:"BaseTranslateY,omitempty"`

	EnableShake    bool    `json:"EnableShake"`
	ShakeAmount    float64 `json:"ShakeAmount"`
	ShakeFrequency float64 `json:"ShakeFrequency"`

	EnablePulse     bool    `json:"EnablePulse"`
	PulseInterval   float64 `json:"PulseInterval"`
	PulseRandomness float64 `json:"PulseRandomness"`
	PulseDamping    float64 `json:"PulseDamping"`
	PulsePowerX     float64 `json:"PulsePowerX"`
	PulsePowerY     float64 `json:"PulsePowerY"`
}

// UnmarshalJSON fills absent fields with the documented defaults.
func (s *stateDoc) UnmarshalJSON(data []byte) error {
	type plain stateDoc
	fx := viewstate.DefaultEffects()
	p := plain{
		ScaleX:          1,
		ScaleY:          1,
		ShakeAmount:     fx.ShakeAmount,
		ShakeFrequency:  fx.ShakeFrequency,
		PulseInterval:   fx.PulseInterval,
		PulseRandomness: fx.PulseRandomness,
		PulseDamping:    fx.PulseDamping,
		PulsePowerX:     fx.PulsePowerX,
		PulsePowerY:     fx.PulsePowerY,
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = stateDoc(p)
	return nil
}

func encodeState(vs viewstate.ViewState) *stateDoc {
	bx, by := vs.BasePan.X, vs.BasePan.Y
	return &stateDoc{
		ScaleX:          vs.Scale.X,
		ScaleY:          vs.Scale.Y,
		TranslateX:      vs.BasePan.X,
		TranslateY:      vs.BasePan.Y,
		BaseTranslateX:  &bx,
		BaseTranslateY:  &by,
		EnableShake:     vs.Effects.EnableShake,
		ShakeAmount:     vs.Effects.ShakeAmount,
		ShakeFrequency:  vs.Effects.ShakeFrequency,
		EnablePulse:     vs.Effects.EnablePulse,
		PulseInterval:   vs.Effects.PulseInterval,
		PulseRandomness: vs.Effects.PulseRandomness,
		PulseDamping:    vs.Effects.PulseDamping,
		PulsePowerX:     vs.Effects.PulsePowerX,
		PulsePowerY:     vs.Effects.PulsePowerY,
	}
}

func (s *stateDoc) decode() viewstate.ViewState {
	pan := viewstate.Vec2{X: s.TranslateX, Y: s.TranslateY}
	// files without base translation only carried the rendered pan
	if s.BaseTranslateX != nil {
		pan.X = *s.BaseTranslateX
	}
	if s.BaseTranslateY != nil {
		pan.Y = *s.BaseTranslateY
	}
	return viewstate.ViewState{
		Scale:   viewstate.Vec2{X: s.ScaleX, Y: s.ScaleY},
		BasePan: pan,
		Effects: viewstate.EffectsConfig{
			EnableShake:     s.EnableShake,
			ShakeAmount:     s.ShakeAmount,
			ShakeFrequency:  s.ShakeFrequency,
			EnablePulse:     s.EnablePulse,
			PulseInterval:   s.PulseInterval,
			PulseRandomness: s.PulseRandomness,
			PulseDamping:    s.PulseDamping,
			PulsePowerX:     s.PulsePowerX,
			PulsePowerY:     s.PulsePowerY,
		},
	}
}

type playbackDoc struct {
	AutoPlayEnabled    bool    `json:"AutoPlayEnabled"`
	AutoPlayInterval   float64 `json:"AutoPlayInterval"`
	AutoPlayRandomness float64 `json:"AutoPlayRandomness"`
	RandomPlayback     bool    `json:"RandomPlayback"`
	AutoSizeWindow     bool    `json:"AutoSizeWindow"`
}

// UnmarshalJSON fills absent fields with the default playback options.
func (p *playbackDoc) UnmarshalJSON(data []byte) error {
	type plain playbackDoc
	v := plain(encodePlayback(settings.DefaultPlayback()))
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = playbackDoc(v)
	return nil
}

func encodePlayback(p settings.Playback) playbackDoc {
	return playbackDoc{
		AutoPlayEnabled:    p.AutoPlayEnabled,
		AutoPlayInterval:   p.AutoPlayInterval,
		AutoPlayRandomness: p.AutoPlayRandomness,
		RandomPlayback:     p.RandomPlayback,
		AutoSizeWindow:     p.AutoSizeWindow,
	}
}

func (p playbackDoc) decode() settings.Playback {
	return settings.Playback{
		AutoPlayEnabled:    p.AutoPlayEnabled,
		AutoPlayInterval:   p.AutoPlayInterval,
		AutoPlayRandomness: p.AutoPlayRandomness,
		RandomPlayback:     p.RandomPlayback,
		AutoSizeWindow:     p.AutoSizeWindow,
	}.Normalize()
}

// Timestamp is a time that tolerates the date layouts older playlists were
// written with. Unparseable values decode to the zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// MarshalJSON writes the time in RFC 3339 form.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts any of the known layouts.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// a non-string date is ignored rather than failing the whole file
		t.Time = time.Time{}
		return nil
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}
