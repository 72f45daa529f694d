// Package logctx builds per-task *logrus.Entry loggers so concurrent tasks
// and tests never share mutable global logger state.
package logctx

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// New returns the base logger used by cmd/main before a task-scoped entry
// exists. Components never hold this directly; they hold an *logrus.Entry.
func New() *log.Logger {
	l := log.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return l
}

// Task returns a logger scoped to one task invocation.
func Task(base *log.Logger, task, workdir, target string) *log.Entry {
	return base.WithFields(log.Fields{
		"task":    task,
		"workdir": workdir,
		"target":  target,
	})
}

// Kind narrows an entry to a single catalog kind, e.g. for backup/restore
// per-kind progress lines.
func Kind(entry *log.Entry, kind string) *log.Entry {
	return entry.WithField("kind", kind)
}

// Item narrows an entry further to one item by name.
func Item(entry *log.Entry, kind, name string) *log.Entry {
	return entry.WithFields(log.Fields{"kind": kind, "item": name})
}
