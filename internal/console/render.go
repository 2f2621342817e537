package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/emeb/S3GTA/dsp/core"
	"github.com/emeb/S3GTA/dsp/meter"
	"github.com/emeb/S3GTA/engine"
	"github.com/emeb/S3GTA/param"
)

const barWidth = 20

var channelNames = [meter.NumChannels]string{"in0", "in1", "out0", "out1"}

// Render draws the status screen. Lines end in CRLF since the terminal is
// in raw mode.
func Render(w io.Writer, snap engine.Snapshot, pots [param.NumChannels]int) error {
	var b strings.Builder

	b.WriteString("\x1b[H\x1b[J")
	fmt.Fprintf(&b, "S3GTA  %s (%d)  %s  load %d%%  overruns %d\r\n",
		snap.Algorithm, snap.AlgorithmIndex, snap.Mute, snap.LoadPercent, snap.Overruns)

	for ch, level := range snap.Levels {
		pct := meter.Percent(level)
		fmt.Fprintf(&b, "%-4s [%s] %2d %6.1f dB\r\n", channelNames[ch], bar(pct), pct, core.PeakToDBFS(level))
	}

	for _, p := range snap.Params {
		fmt.Fprintf(&b, "%-6s %s\r\n", p.Name, p.Display)
	}

	b.WriteString("pots  ")

	for ch, v := range pots {
		fmt.Fprintf(&b, " %c/%c %4d", potKeys[ch][0], potKeys[ch][1], v)
	}

	b.WriteString("\r\n1-9 algorithm  m mute  p save  x quit\r\n")

	_, err := io.WriteString(w, b.String())

	return err
}

func bar(percent int) string {
	n := min(max(percent*barWidth/100, 0), barWidth)
	return strings.Repeat("#", n) + strings.Repeat(".", barWidth-n)
}
