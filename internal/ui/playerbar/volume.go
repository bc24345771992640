package playerbar

import (
	"fmt"

	"github.com/llehouerou/streamer/internal/icons"
)

// RenderVolume renders the volume indicator.
// Format: "vol  80%" or "mute  80%" when muted
func RenderVolume(volume float64, muted bool) string {
	pct := int(volume*100 + 0.5)
	icon := icons.Volume()
	if muted {
		icon = icons.VolumeMute()
	}
	return timeStyle().Render(fmt.Sprintf("%s %3d%%", icon, pct))
}
