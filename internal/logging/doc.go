// Package logging builds the daemon's slog loggers. The console handler
// renders compact key=value lines with the component attribute folded into
// the message prefix; the json handler emits one object per line for log
// shippers.
package logging
