package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/sirupsen/logrus"
)

// Levels from quietest to noisiest. Anything unrecognised is "none".
var Levels = []string{"none", "error", "warning", "info", "debug"}

var logrusLevels = map[string]logrus.Level{
	"error":   logrus.ErrorLevel,
	"warning": logrus.WarnLevel,
	"info":    logrus.InfoLevel,
	"debug":   logrus.DebugLevel,
}

// NormaliseLevel maps any prefix of a level name onto it, so "d" and
// "DEB" are both debug.
func NormaliseLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return "none"
	}
	for _, l := range Levels {
		if strings.HasPrefix(l, level) {
			return l
		}
	}
	return "none"
}

type Options struct {
	App         string
	LogDir      string
	LogLevel    string
	OutputLevel string
	Journal     bool
	Output      io.Writer
}

/* Logging fans one logrus logger out to separately levelled sinks:
 *
 *  - output: human readable lines on stderr, up to OutputLevel
 *  - file:   JSON lines in <LogDir>/<App>.log, up to LogLevel
 *  - journald, up to LogLevel, when enabled and available
 *
 * Both levels at "none" silence everything.
 */
type Logging struct {
	*logrus.Entry
	file *os.File
}

func New(opts Options) (*Logging, error) {
	if opts.App == "" {
		opts.App = filepath.Base(os.Args[0])
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)

	l := &Logging{}

	if level, ok := logrusLevels[NormaliseLevel(opts.OutputLevel)]; ok {
		logger.AddHook(&writerHook{
			writer: opts.Output,
			formatter: &logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: "2006-01-02 15:04:05",
			},
			levels: logrus.AllLevels[:level+1],
		})
		raiseLevel(logger, level)
	}

	if level, ok := logrusLevels[NormaliseLevel(opts.LogLevel)]; ok {
		f, err := openLogFile(opts.LogDir, opts.App)
		if err != nil {
			return nil, err
		}
		l.file = f
		logger.AddHook(&writerHook{
			writer: f,
			formatter: &logrus.JSONFormatter{
				FieldMap: logrus.FieldMap{logrus.FieldKeyMsg: "message"},
			},
			levels: logrus.AllLevels[:level+1],
		})

		if opts.Journal && journal.Enabled() {
			logger.AddHook(&journalHook{
				identifier: opts.App,
				levels:     logrus.AllLevels[:level+1],
			})
		}
		raiseLevel(logger, level)
	}

	l.Entry = logger.WithField("pid", os.Getpid())
	return l, nil
}

func (l *Logging) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func raiseLevel(logger *logrus.Logger, level logrus.Level) {
	if level > logger.GetLevel() {
		logger.SetLevel(level)
	}
}

func openLogFile(dir, app string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, app+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}

type writerHook struct {
	writer    io.Writer
	formatter logrus.Formatter
	levels    []logrus.Level
}

func (h *writerHook) Levels() []logrus.Level {
	return h.levels
}

func (h *writerHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

type journalHook struct {
	identifier string
	levels     []logrus.Level
}

func (h *journalHook) Levels() []logrus.Level {
	return h.levels
}

func (h *journalHook) Fire(entry *logrus.Entry) error {
	vars := map[string]string{"SYSLOG_IDENTIFIER": h.identifier}
	for k, v := range entry.Data {
		if name := journalField(k); name != "" {
			vars[name] = fmt.Sprint(v)
		}
	}
	return journal.Send(entry.Message, journalPriority(entry.Level), vars)
}

func journalPriority(level logrus.Level) journal.Priority {
	switch level {
	case logrus.PanicLevel:
		return journal.PriEmerg
	case logrus.FatalLevel:
		return journal.PriCrit
	case logrus.ErrorLevel:
		return journal.PriErr
	case logrus.WarnLevel:
		return journal.PriWarning
	case logrus.InfoLevel:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// journalField turns a logrus field name into a valid journal field:
// upper case letters, digits and underscores, not starting with one.
func journalField(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), "_0123456789")
}
