// Package logging holds the logrus helpers shared by the pipeline components.
package logging

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Discard returns an entry whose output is thrown away.
func Discard() *log.Entry {
	l := log.New()
	l.SetOutput(io.Discard)
	return log.NewEntry(l)
}

// Component tags l with the component name. A nil l yields a discarding
// entry so constructors can accept an optional logger.
func Component(l *log.Entry, name string) *log.Entry {
	if l == nil {
		l = Discard()
	}
	return l.WithField("component", name)
}
