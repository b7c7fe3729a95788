package core

// Logger is the app-wide leveled logger. Implementations may inspect args for
// well-known types (eg. an error for stack traces or a user for tagging the
// reported event with the acting principal).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
