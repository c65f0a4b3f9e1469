package network_connector

import (
	"context"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// dhcpArgs are the udhcpc arguments for an interface: send no client
// ID, retry for a minute then give up instead of backgrounding.
func dhcpArgs(iface, hook string) []string {
	return []string{
		"-S",
		"-t", "70",
		"-A", "20",
		"-n", "-a",
		"--script=" + hook,
		"-i", iface,
	}
}

type ProcessKiller interface {
	// KillMatching kills every process whose command line contains
	// cmdline and returns how many were killed.
	KillMatching(ctx context.Context, cmdline string) (int, error)
}

type psutilKiller struct{}

func NewProcessKiller() ProcessKiller {
	return psutilKiller{}
}

func (psutilKiller) KillMatching(ctx context.Context, cmdline string) (int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, err
	}

	self := int32(os.Getpid())
	killed := 0
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		// processes may exit while we walk the table
		cl, err := p.CmdlineWithContext(ctx)
		if err != nil || !strings.Contains(cl, cmdline) {
			continue
		}
		if err := p.KillWithContext(ctx); err == nil {
			killed++
		}
	}
	return killed, nil
}
