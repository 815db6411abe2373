package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

var levelStyles = map[string]lipgloss.Style{
	"debug": debugStyle,
	"info":  successStyle,
	"warn":  warningStyle,
	"error": errorStyle,
	"fatal": fatalStyle,
}

var levelNames = map[string]string{
	"debug": "DEBUG",
	"info":  "INFO",
	"warn":  "WARNING",
	"error": "ERROR",
	"fatal": "CRITICAL",
}

// Logger is the console facility used for user-facing status lines,
// printed as "[name|LEVEL] - message" with per-level colors.
type Logger struct {
	zl zerolog.Logger
}

func NewLogger(name string, w io.Writer) *Logger {
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		PartsOrder: []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: func(i any) string {
			lvl, _ := i.(string)
			display, ok := levelNames[lvl]
			if !ok {
				display = strings.ToUpper(lvl)
			}
			style, ok := levelStyles[lvl]
			if ok {
				display = style.Render(display)
			}
			return fmt.Sprintf("[%s|%s] -", infoStyle.Render(name), display)
		},
	}
	return &Logger{zl: zerolog.New(cw).Level(zerolog.DebugLevel)}
}

func (l *Logger) Debug(message string) {
	l.zl.Debug().Msg(debugStyle.Render(message))
}

func (l *Logger) Info(message string) {
	l.zl.Info().Msg(successStyle.Render(message))
}

func (l *Logger) Warning(message string) {
	l.zl.Warn().Msg(warningStyle.Render(message))
}

func (l *Logger) Error(message string) {
	l.zl.Error().Msg(errorStyle.Render(message))
}

// Critical logs at fatal level without exiting the process.
func (l *Logger) Critical(message string) {
	l.zl.WithLevel(zerolog.FatalLevel).Msg(fatalStyle.Render(message))
}
