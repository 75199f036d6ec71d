package config

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// TTFormatter renders colored logfmt-style lines: level, timestamp, fields
// in key order, message. Fields are sorted so repeated runs stay diffable.
type TTFormatter struct{}

const (
	red         = 31
	green       = 32
	yellow      = 33
	blue        = 36
	gray        = 37
	lightGreen  = 92
	lightYellow = 93
	cyan        = 96
)

func colorize(color int, s string) string {
	return "\x1b[" + strconv.Itoa(color) + "m" + s + "\x1b[0m"
}

func (f *TTFormatter) Format(entry *log.Entry) ([]byte, error) {
	levelColor := blue
	switch entry.Level {
	case log.TraceLevel, log.DebugLevel:
		levelColor = gray
	case log.WarnLevel:
		levelColor = yellow
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		levelColor = red
	}
	level := colorize(levelColor, strings.ToUpper(entry.Level.String())[:4])

	var b strings.Builder
	b.WriteString(colorize(cyan, "level") + "=" + level)
	b.WriteString(" " + colorize(cyan, "ts") + "=" + colorize(lightYellow, entry.Time.Format("2006-01-02 15:04:05.000")))

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m, err := json.Marshal(entry.Data[k])
		if err != nil || len(m) == 0 {
			continue
		}
		s := string(m)
		valueColor := cyan
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			valueColor = green
		} else if strings.HasPrefix(s, `"`) {
			valueColor = lightYellow
		}
		b.WriteString(" " + colorize(cyan, k) + "=" + colorize(valueColor, s))
	}
	b.WriteString(" " + colorize(cyan, "msg") + "=" + colorize(lightGreen, strconv.Quote(entry.Message)))
	b.WriteString("\n")

	return []byte(b.String()), nil
}
