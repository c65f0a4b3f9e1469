package logging

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"
)

var followPoll = 100 * time.Millisecond

// FollowFile streams lines appended to path after the call, like
// tail -f, until ctx is done. A truncated file is read again from the
// start.
func FollowFile(ctx context.Context, path string) (<-chan string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, err
	}

	out := make(chan string, 10)
	go func() {
		defer close(out)
		defer file.Close()

		reader := bufio.NewReader(file)
		partial := ""
		for {
			chunk, err := reader.ReadString('\n')
			offset += int64(len(chunk))
			partial += chunk

			if err == nil {
				select {
				case out <- strings.TrimRight(partial, "\r\n"):
				case <-ctx.Done():
					return
				}
				partial = ""
				continue
			}
			if !errors.Is(err, io.EOF) {
				return
			}

			if info, serr := file.Stat(); serr == nil && info.Size() < offset {
				// Cleanup rewrote the file under us
				if _, err := file.Seek(0, io.SeekStart); err != nil {
					return
				}
				offset, partial = 0, ""
				reader.Reset(file)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(followPoll):
			}
		}
	}()
	return out, nil
}
