package network_wifi

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/dogeorg/dogewifi/pkg/utils"
	"github.com/dogeorg/dogewifi/pkg/utils/utilstest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("testdata/iwlist_scan.txt")
	require.NoError(t, err)
	return string(b)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestParseIWListOutput(t *testing.T) {
	cells, err := ParseIWListOutput(readFixture(t))
	require.NoError(t, err)
	require.Len(t, cells, 5)

	home := cells["01"]
	assert.Equal(t, "01", home.Number)
	assert.Equal(t, "00:11:22:33:44:01", home.MAC)
	assert.Equal(t, "HomeNet", home.ESSID)
	assert.Equal(t, "1", home.Channel)
	assert.Equal(t, "2.412", home.Frequency)
	assert.Equal(t, "42/70", home.Quality)
	assert.Equal(t, "-68", home.Signal)
	assert.Equal(t, "on", home.EncryptionKey)
	assert.Equal(t, "Master", home.Mode)
	assert.Contains(t, home.IE, "IEEE 802.11i/WPA2 Version 1")
	assert.Equal(t, []string{"tsf=000000a1b2c3d4e5", "Last beacon: 40ms ago"}, home.Extra)
	assert.Equal(t, dogewifi.EncryptionWPA, home.Encryption())

	assert.Equal(t, dogewifi.EncryptionOff, cells["02"].Encryption())
	assert.Equal(t, dogewifi.EncryptionWEP, cells["03"].Encryption())
	assert.Equal(t, "", cells["04"].ESSID)
}

func TestParseIWListOutputEmpty(t *testing.T) {
	cells, err := ParseIWListOutput("wlan0     No scan results\n")
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestParseIWListOutputMalformedHeader(t *testing.T) {
	_, err := ParseIWListOutput("          Cell 01 - Address:\n                    ESSID:\"x\"\n")

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Line, "Cell 01")
}

func TestParseIWListOutputQualityWithoutSignal(t *testing.T) {
	_, err := ParseIWListOutput("Cell 01 - Address: 00:11:22:33:44:55\n  Quality=10/70\n")

	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestScannerRetriesEmptyOutput(t *testing.T) {
	clock := utilstest.NewManualClock()
	runner := &utilstest.FakeRunner{}
	scanner := NewIWListScanner(quietLogger(), runner, utils.Budget{
		Interval: 200 * time.Millisecond,
		Timeout:  5 * time.Second,
		Clock:    clock,
	})

	cells, err := scanner.Scan(context.Background(), "wlan0")
	require.NoError(t, err)
	assert.NotNil(t, cells)
	assert.Empty(t, cells)
	assert.Equal(t, 25, runner.CountPrefix("iwlist wlan0 scan"))
	assert.Equal(t, 1, runner.CountPrefix("ifconfig wlan0 up"))
	assert.LessOrEqual(t, clock.Elapsed(), 5*time.Second)
}

func TestScannerStopsOnFirstResult(t *testing.T) {
	fixture := readFixture(t)
	passes := 0
	runner := &utilstest.FakeRunner{Handler: func(name string, args []string) (utils.CommandResult, error) {
		if name != "iwlist" {
			return utils.CommandResult{}, nil
		}
		passes++
		if passes < 3 {
			return utils.CommandResult{}, errors.New("Device or resource busy")
		}
		return utils.CommandResult{Stdout: fixture}, nil
	}}
	scanner := NewIWListScanner(quietLogger(), runner, utils.Budget{
		Interval: 200 * time.Millisecond,
		Timeout:  5 * time.Second,
		Clock:    utilstest.NewManualClock(),
	})

	cells, err := scanner.Scan(context.Background(), "wlan0")
	require.NoError(t, err)
	assert.Len(t, cells, 5)
	assert.Equal(t, 3, runner.CountPrefix("iwlist"))
}

func TestScannerReportsParseError(t *testing.T) {
	runner := &utilstest.FakeRunner{Handler: func(name string, args []string) (utils.CommandResult, error) {
		return utils.CommandResult{Stdout: "Cell 01 - Address:\n"}, nil
	}}
	scanner := NewIWListScanner(quietLogger(), runner, utils.Budget{
		Interval: time.Second,
		Timeout:  time.Minute,
		Clock:    utilstest.NewManualClock(),
	})

	_, err := scanner.Scan(context.Background(), "wlan0")
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, runner.CountPrefix("iwlist"))
}
