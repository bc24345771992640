package icons

// Style represents the icon style to use.
type Style string

const (
	StyleNerd    Style = "nerd"
	StyleUnicode Style = "unicode"
	StyleNone    Style = "none"
)

// Icons holds the icon characters for the current style.
type Icons struct {
	Play       string
	Pause      string
	Stop       string
	Loading    string
	Loop       string
	Volume     string
	VolumeMute string
	Detached   string
}

var (
	nerdIcons = Icons{
		Play:       "\uf04b",     // nf-fa-play
		Pause:      "\uf04c",     // nf-fa-pause
		Stop:       "\uf04d",     // nf-fa-stop
		Loading:    "\U000f051f", // nf-md-timer_sand
		Loop:       "\U000f0458", // nf-md-repeat_once
		Volume:     "\U000f057e", // nf-md-volume_high
		VolumeMute: "\U000f075f", // nf-md-volume_mute
		Detached:   "\U000f0338", // nf-md-link_off
	}

	unicodeIcons = Icons{
		Play:       "▶",
		Pause:      "⏸",
		Stop:       "⏹",
		Loading:    "⏳",
		Loop:       "🔂",
		Volume:     "🔊",
		VolumeMute: "🔇",
		Detached:   "⛓",
	}

	noneIcons = Icons{
		Play:       ">",
		Pause:      "||",
		Stop:       "[]",
		Loading:    "..",
		Loop:       "[1]",
		Volume:     "vol",
		VolumeMute: "mute",
		Detached:   "(detached)",
	}

	// current holds the active icon set
	current = noneIcons
)

// Init initializes the icons based on the style.
// Call this once at startup with the config value.
func Init(style string) {
	switch Style(style) {
	case StyleNerd:
		current = nerdIcons
	case StyleUnicode:
		current = unicodeIcons
	default:
		current = noneIcons
	}
}

// Play returns the playing indicator.
func Play() string { return current.Play }

// Pause returns the paused indicator.
func Pause() string { return current.Pause }

// Stop returns the stopped indicator.
func Stop() string { return current.Stop }

// Loading returns the indicator shown while a stream is fetched.
func Loading() string { return current.Loading }

// Loop returns the single-track loop indicator.
func Loop() string { return current.Loop }

// Volume returns the volume indicator.
func Volume() string { return current.Volume }

// VolumeMute returns the muted volume indicator.
func VolumeMute() string { return current.VolumeMute }

// Detached returns the indicator shown while the UI is unbound.
func Detached() string { return current.Detached }
