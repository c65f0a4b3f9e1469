package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// TailLength is how many lines Cleanup keeps in each log.
const TailLength = 500

func logFiles(dir, app string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var match *regexp.Regexp
	if app != "" {
		match = regexp.MustCompile(`^` + regexp.QuoteMeta(app) + `\.log`)
	}

	paths := []string{}
	for _, e := range entries {
		if e.IsDir() || (match != nil && !match.MatchString(e.Name())) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// ReadLogs decodes the JSON lines of every log in dir, or only app's
// when app is set. Lines that are not JSON are skipped.
func ReadLogs(dir, app string) (map[string][]map[string]any, error) {
	paths, err := logFiles(dir, app)
	if err != nil {
		return nil, err
	}

	logs := map[string][]map[string]any{}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		records := []map[string]any{}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			var record map[string]any
			if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
				continue
			}
			records = append(records, record)
		}
		f.Close()

		if err := scanner.Err(); err != nil {
			return nil, err
		}
		logs[path] = records
	}
	return logs, nil
}

// Cleanup cuts each matching log down to its last limit lines.
func Cleanup(dir, app string, limit int) error {
	paths, err := logFiles(dir, app)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := tailFile(path, limit); err != nil {
			return err
		}
	}
	return nil
}

func tailFile(path string, limit int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) <= limit {
		return nil
	}

	return os.WriteFile(path, []byte(strings.Join(lines[len(lines)-limit:], "")), 0644)
}
