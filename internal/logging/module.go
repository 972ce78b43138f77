package logging

import "github.com/soyeahso/gacc/pkg/command"

// moduleLogger adapts Logger to the command.Logger contract seen by modules.
type moduleLogger struct {
	l *Logger
}

// ForModule returns a command.Logger whose lines are tagged with the module name.
func (l *Logger) ForModule(module string) command.Logger {
	return moduleLogger{l: l.With("module", module)}
}

func (m moduleLogger) Info(msg string)  { m.l.Info().Msg(msg) }
func (m moduleLogger) Warn(msg string)  { m.l.Warn().Msg(msg) }
func (m moduleLogger) Error(msg string) { m.l.Error().Msg(msg) }
