package util

import (
	"fmt"
	"strconv"
)

var (
	byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}
	// Link speeds are quoted in decimal units.
	bitUnits = []string{"bps", "Kbps", "Mbps", "Gbps", "Tbps"}
)

// scale divides v by step until it drops below step or the units run out.
func scale(v, step float64, units []string) (float64, string) {
	i := 0
	for v >= step && i < len(units)-1 {
		v /= step
		i++
	}
	return v, units[i]
}

// FormatBytes renders a byte count or byte rate with binary units: whole
// numbers for plain bytes ("512 B"), two decimals above that ("1.50 KiB").
func FormatBytes(b float64) string {
	v, unit := scale(b, 1024, byteUnits)
	if unit == byteUnits[0] {
		return strconv.FormatFloat(v, 'f', 0, 64) + " " + unit
	}
	return fmt.Sprintf("%.2f %s", v, unit)
}

// FormatBits formats a bits-per-second rate, e.g. "812.40 Mbps".
func FormatBits(bps float64) string {
	v, unit := scale(bps, 1000, bitUnits)
	return fmt.Sprintf("%.2f %s", v, unit)
}
