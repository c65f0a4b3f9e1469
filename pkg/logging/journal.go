package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/sdjournal"
)

// ReadJournal returns up to the last n messages logged under identifier.
func ReadJournal(identifier string, n uint64) ([]string, error) {
	j, err := openJournal(identifier, n)
	if err != nil {
		return nil, err
	}
	defer j.Close()

	messages := []string{}
	for {
		c, err := j.Next()
		if err != nil {
			return messages, err
		}
		if c == 0 {
			return messages, nil
		}

		entry, err := j.GetEntry()
		if err != nil {
			continue
		}
		messages = append(messages, entry.Fields[sdjournal.SD_JOURNAL_FIELD_MESSAGE])
	}
}

// FollowJournal streams messages logged under identifier, starting n
// entries back, until ctx is done.
func FollowJournal(ctx context.Context, identifier string, n uint64) (<-chan string, error) {
	j, err := openJournal(identifier, n)
	if err != nil {
		return nil, err
	}

	out := make(chan string, 10)
	go func() {
		defer close(out)
		defer j.Close()

		for {
			if ctx.Err() != nil {
				return
			}

			c, err := j.Next()
			if err != nil {
				return
			}
			if c == 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}

			entry, err := j.GetEntry()
			if err != nil {
				continue
			}
			select {
			case out <- entry.Fields[sdjournal.SD_JOURNAL_FIELD_MESSAGE]:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func openJournal(identifier string, n uint64) (*sdjournal.Journal, error) {
	j, err := sdjournal.NewJournal()
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := j.AddMatch(sdjournal.SD_JOURNAL_FIELD_SYSLOG_IDENTIFIER + "=" + identifier); err != nil {
		j.Close()
		return nil, err
	}
	if err := j.SeekTail(); err != nil {
		j.Close()
		return nil, err
	}
	if _, err := j.PreviousSkip(n); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}
