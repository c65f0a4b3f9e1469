package network_wifi

import (
	"context"
	"fmt"
	"strings"
	"time"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/dogeorg/dogewifi/pkg/metrics"
	"github.com/dogeorg/dogewifi/pkg/utils"
	"github.com/sirupsen/logrus"
)

var _ WifiScanner = &IWListScanner{}

type IWListScanner struct {
	log    logrus.FieldLogger
	runner utils.CommandRunner
	budget utils.Budget
}

func NewIWListScanner(log logrus.FieldLogger, runner utils.CommandRunner, budget utils.Budget) *IWListScanner {
	return &IWListScanner{
		log:    log.WithField("component", "iwlist"),
		runner: runner,
		budget: budget,
	}
}

func (s *IWListScanner) Scan(ctx context.Context, interfaceName string) (map[string]dogewifi.ScanCell, error) {
	// the scan does not proceed on a downed interface
	_, _ = s.runner.Run(ctx, "ifconfig", interfaceName, "up")

	var cells map[string]dogewifi.ScanCell
	clock := s.budget.Clock
	if clock == nil {
		clock = utils.RealClock{}
	}
	began := clock.Now()

	// some dongle drivers intermittently return an empty list
	tries, _, err := s.budget.Poll(ctx, func(ctx context.Context) (bool, error) {
		raw, err := s.rawData(ctx, interfaceName)
		if err != nil {
			s.log.WithError(err).Debug("Scan pass failed")
			return false, nil
		}
		if strings.TrimSpace(raw) == "" {
			s.log.Debug("No networks found in scanning loop")
			return false, nil
		}

		cells, err = ParseIWListOutput(raw)
		if err != nil {
			return false, err
		}
		s.log.Debugf("Found %d networks in scanning loop", len(cells))
		return len(cells) > 0, nil
	})

	elapsed := clock.Now().Sub(began)
	metrics.ObserveScan(interfaceName, elapsed, len(cells), err)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"interface": interfaceName,
		"networks":  len(cells),
		"tries":     tries,
		"elapsed":   elapsed.Round(time.Millisecond).String(),
	}).Info("Scan finished")

	if cells == nil {
		cells = map[string]dogewifi.ScanCell{}
	}
	return cells, nil
}

func (s *IWListScanner) rawData(ctx context.Context, interfaceName string) (string, error) {
	res, err := s.runner.Run(ctx, "iwlist", interfaceName, "scan")
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed scan line %q: %s", e.Line, e.Reason)
}

// ParseIWListOutput turns iwlist scan output into cells keyed by the
// scan-local cell number.
func ParseIWListOutput(output string) (map[string]dogewifi.ScanCell, error) {
	var blocks [][]string
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "Cell ") {
			blocks = append(blocks, []string{})
		}
		// anything before the first cell is the interface banner
		if len(blocks) > 0 {
			blocks[len(blocks)-1] = append(blocks[len(blocks)-1], line)
		}
	}

	cells := make(map[string]dogewifi.ScanCell, len(blocks))
	for _, block := range blocks {
		cell, err := parseCell(block)
		if err != nil {
			return nil, err
		}
		cells[cell.Number] = cell
	}
	return cells, nil
}

func parseCell(lines []string) (dogewifi.ScanCell, error) {
	cell := dogewifi.ScanCell{Signal: "0"}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, "Cell "):
			// Cell 01 - Address: 00:11:22:33:44:55
			fields := strings.Fields(line)
			if len(fields) < 5 {
				return cell, &ParseError{Line: line, Reason: "cell header without address"}
			}
			cell.Number = fields[1]
			cell.MAC = fields[4]

		case strings.HasPrefix(line, `ESSID:"`):
			cell.ESSID = strings.TrimSuffix(strings.TrimPrefix(line, `ESSID:"`), `"`)

		case strings.HasPrefix(line, "Protocol:"):
			cell.Protocol = strings.TrimPrefix(line, "Protocol:")

		case strings.HasPrefix(line, "Mode:"):
			cell.Mode = strings.TrimPrefix(line, "Mode:")

		case strings.HasPrefix(line, "Frequency:"):
			// Frequency:2.437 GHz (Channel 6)
			fields := strings.Fields(strings.TrimPrefix(line, "Frequency:"))
			if len(fields) == 0 {
				return cell, &ParseError{Line: line, Reason: "empty frequency"}
			}
			cell.Frequency = fields[0]
			if len(fields) >= 4 && fields[2] == "(Channel" {
				cell.Channel = strings.TrimSuffix(fields[3], ")")
			}

		case strings.HasPrefix(line, "Channel:"):
			if cell.Channel == "" {
				cell.Channel = strings.TrimPrefix(line, "Channel:")
			}

		case strings.HasPrefix(line, "Quality="):
			// Quality=70/70  Signal level=-38 dBm  Noise level=-95 dBm
			if err := parseQuality(line, &cell); err != nil {
				return cell, err
			}

		case strings.HasPrefix(line, "Encryption key:"):
			cell.EncryptionKey = strings.TrimPrefix(line, "Encryption key:")

		case strings.HasPrefix(line, "IE"):
			v, err := valueAfterColon(line)
			if err != nil {
				return cell, err
			}
			cell.IE = append(cell.IE, v)

		case strings.HasPrefix(line, "Extra:"):
			v, err := valueAfterColon(line)
			if err != nil {
				return cell, err
			}
			cell.Extra = append(cell.Extra, v)
		}
	}

	return cell, nil
}

func parseQuality(line string, cell *dogewifi.ScanCell) error {
	quality := strings.Fields(strings.TrimPrefix(line, "Quality="))
	if len(quality) == 0 {
		return &ParseError{Line: line, Reason: "empty quality"}
	}
	cell.Quality = quality[0]

	signal, ok := levelAfter(line, "Signal level")
	if !ok {
		return &ParseError{Line: line, Reason: "no signal level"}
	}
	cell.Signal = signal

	if noise, ok := levelAfter(line, "Noise level"); ok {
		cell.Noise = noise
	}
	return nil
}

// levelAfter reads the first token after "<label>=" or "<label>:".
func levelAfter(line, label string) (string, bool) {
	i := strings.Index(line, label)
	if i < 0 {
		return "", false
	}
	rest := line[i+len(label):]
	if rest == "" || (rest[0] != '=' && rest[0] != ':') {
		return "", false
	}
	fields := strings.Fields(rest[1:])
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

func valueAfterColon(line string) (string, error) {
	_, v, ok := strings.Cut(line, ":")
	if !ok {
		return "", &ParseError{Line: line, Reason: "missing ':'"}
	}
	return strings.TrimSpace(v), nil
}
