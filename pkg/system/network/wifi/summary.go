package network_wifi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
)

type QualityError struct {
	ESSID   string
	Quality string
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("network %q has a malformed quality ratio %q", e.ESSID, e.Quality)
}

/* BuildSummary reduces one scan pass to a list of networks ordered by
 * link quality, strongest first.
 *
 * Hidden networks are left out, ESSIDs appear once (the access point
 * with the larger integer signal wins, ties and unparsable signals keep
 * the one seen first) and unsecureOnly drops anything encrypted.
 */
func BuildSummary(cells map[string]dogewifi.ScanCell, unsecureOnly, firstOnly bool) ([]dogewifi.NetworkSummary, error) {
	networks := []dogewifi.NetworkSummary{}

	for _, number := range orderedCellNumbers(cells) {
		cell := cells[number]

		if cell.ESSID == "" {
			continue
		}

		enc := cell.Encryption()
		if unsecureOnly && enc != dogewifi.EncryptionOff {
			continue
		}

		networks = addNetwork(networks, dogewifi.NetworkSummary{
			ESSID:      cell.ESSID,
			Channel:    cell.Channel,
			Signal:     cell.Signal,
			Quality:    cell.Quality,
			Encryption: enc,
		})
	}

	ratios := make(map[string]float64, len(networks))
	for _, n := range networks {
		r, err := qualityRatio(n.Quality)
		if err != nil {
			return nil, &QualityError{ESSID: n.ESSID, Quality: n.Quality}
		}
		ratios[n.ESSID] = r
	}

	sort.SliceStable(networks, func(i, j int) bool {
		return ratios[networks[i].ESSID] > ratios[networks[j].ESSID]
	})

	if firstOnly && len(networks) > 1 {
		networks = networks[:1]
	}
	return networks, nil
}

func addNetwork(networks []dogewifi.NetworkSummary, n dogewifi.NetworkSummary) []dogewifi.NetworkSummary {
	for i, existing := range networks {
		if existing.ESSID != n.ESSID {
			continue
		}

		oldSignal, err1 := strconv.Atoi(existing.Signal)
		newSignal, err2 := strconv.Atoi(n.Signal)
		if err1 == nil && err2 == nil && oldSignal < newSignal {
			networks[i] = n
		}
		return networks
	}
	return append(networks, n)
}

func qualityRatio(q string) (float64, error) {
	num, den, ok := strings.Cut(q, "/")
	if !ok {
		return 0, fmt.Errorf("no ratio in %q", q)
	}
	x, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, err
	}
	z, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil {
		return 0, err
	}
	if z == 0 {
		return 0, fmt.Errorf("zero denominator in %q", q)
	}
	return float64(x) / float64(z), nil
}

// orderedCellNumbers sorts numerically where it can so "first seen"
// follows the order iwlist printed the cells in.
func orderedCellNumbers(cells map[string]dogewifi.ScanCell) []string {
	numbers := make([]string, 0, len(cells))
	for k := range cells {
		numbers = append(numbers, k)
	}

	sort.Slice(numbers, func(i, j int) bool {
		a, errA := strconv.Atoi(numbers[i])
		b, errB := strconv.Atoi(numbers[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return numbers[i] < numbers[j]
	})
	return numbers
}
