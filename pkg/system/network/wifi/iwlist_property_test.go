package network_wifi

import (
	"fmt"
	"strings"
	"testing"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genScanCells builds cells numbered 01..N in scan order.
func genScanCells() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, 1<<20)).Map(func(seeds []int) []dogewifi.ScanCell {
		cells := make([]dogewifi.ScanCell, 0, len(seeds))
		for i, seed := range seeds {
			key := "on"
			if seed%3 == 0 {
				key = "off"
			}
			channel := fmt.Sprint(1 + seed%13)
			cells = append(cells, dogewifi.ScanCell{
				Number:        fmt.Sprintf("%02d", i+1),
				MAC:           fmt.Sprintf("02:00:00:%02X:%02X:%02X", seed>>16&0xff, seed>>8&0xff, seed&0xff),
				ESSID:         propertyESSIDs[seed%len(propertyESSIDs)],
				Channel:       channel,
				Frequency:     "2.4" + channel,
				Quality:       fmt.Sprintf("%d/70", (seed/7)%71),
				Signal:        fmt.Sprint(-20 - (seed/11)%80),
				EncryptionKey: key,
			})
		}
		return cells
	})
}

// renderScan writes cells the way iwlist prints them.
func renderScan(cells []dogewifi.ScanCell) string {
	var b strings.Builder
	b.WriteString("wlan0     Scan completed :\n")
	for _, c := range cells {
		fmt.Fprintf(&b, "          Cell %s - Address: %s\n", c.Number, c.MAC)
		fmt.Fprintf(&b, "                    Channel:%s\n", c.Channel)
		fmt.Fprintf(&b, "                    Frequency:%s GHz (Channel %s)\n", c.Frequency, c.Channel)
		fmt.Fprintf(&b, "                    Quality=%s  Signal level=%s dBm\n", c.Quality, c.Signal)
		fmt.Fprintf(&b, "                    Encryption key:%s\n", c.EncryptionKey)
		fmt.Fprintf(&b, "                    ESSID:\"%s\"\n", c.ESSID)
		if c.EncryptionKey == "on" {
			b.WriteString("                    IE: IEEE 802.11i/WPA2 Version 1\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func TestParseIWListOutputProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("one entry per cell block keyed by its number", prop.ForAll(
		func(cells []dogewifi.ScanCell) bool {
			parsed, err := ParseIWListOutput(renderScan(cells))
			if err != nil || len(parsed) != len(cells) {
				return false
			}
			for _, want := range cells {
				got, ok := parsed[want.Number]
				if !ok || got.Number != want.Number || got.MAC != want.MAC {
					return false
				}
			}
			return true
		},
		genScanCells(),
	))

	properties.Property("cell fields survive the round trip", prop.ForAll(
		func(cells []dogewifi.ScanCell) bool {
			parsed, err := ParseIWListOutput(renderScan(cells))
			if err != nil {
				return false
			}
			for _, want := range cells {
				got := parsed[want.Number]
				if got.ESSID != want.ESSID || got.Channel != want.Channel || got.Frequency != want.Frequency ||
					got.Quality != want.Quality || got.Signal != want.Signal || got.EncryptionKey != want.EncryptionKey {
					return false
				}
				if (want.EncryptionKey == "on") != (len(got.IE) == 1) {
					return false
				}
			}
			return true
		},
		genScanCells(),
	))

	properties.TestingRun(t)
}
