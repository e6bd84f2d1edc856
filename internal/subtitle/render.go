package subtitle

import (
	"fmt"
	"strings"
	"time"
)

// ComposeSRT serializes units as SubRip blocks. Output is derived only
// from the unit sequence, so rendering the same sequence twice yields
// byte-identical content.
func ComposeSRT(units []Unit) string {
	var b strings.Builder
	for _, unit := range units {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", unit.Index, srtTimestamp(unit.Start), srtTimestamp(unit.End), unit.Text)
	}
	return b.String()
}

// PlainText joins unit texts in order with single spaces.
func PlainText(units []Unit) string {
	texts := make([]string, len(units))
	for i, unit := range units {
		texts[i] = unit.Text
	}
	return strings.Join(texts, " ")
}

// LLMSRT renders one "[HH:MM:SS] text" line per unit, the compact form
// fed to language models. Start times are truncated to whole seconds.
func LLMSRT(units []Unit) string {
	lines := make([]string, len(units))
	for i, unit := range units {
		lines[i] = fmt.Sprintf("[%s] %s", clockTimestamp(unit.Start), unit.Text)
	}
	return strings.Join(lines, "\n")
}

// srtTimestamp formats a duration as HH:MM:SS,mmm. Hours do not wrap so
// recordings past 24 hours stay addressable.
func srtTimestamp(d time.Duration) string {
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	ms := int(d/time.Millisecond) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func clockTimestamp(d time.Duration) string {
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
