package internal

import (
	"fmt"
	"log"
	"time"

	"robokassa/services"
)

// LogRecord is one structured log entry, persisted to the database when
// one is configured.
type LogRecord struct {
	Time   time.Time `json:"time" bson:"time"`
	Module string    `json:"module" bson:"module"`
	Level  string    `json:"level" bson:"level"`
	Text   string    `json:"text" bson:"text"`
}

func (r *LogRecord) DataType() string {
	return "log"
}

// Logger is a per-module log handler writing to stdout and, optionally,
// to the database. Password material must never reach it; use secret()
// for identifiers.
type Logger struct {
	module  string
	isDebug bool
	db      services.Database
}

func NewLogger(module string, isDebug bool, db services.Database) *Logger {
	return &Logger{
		module:  module,
		isDebug: isDebug,
		db:      db,
	}
}

func (l *Logger) Debug(message string) {
	if !l.isDebug {
		return
	}
	l.write("DEBUG", message)
}

func (l *Logger) Info(message string) {
	l.write("INFO", message)
}

func (l *Logger) Warn(message string) {
	l.write("WARN", message)
}

func (l *Logger) Error(message string, err error) {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	l.write("ERROR", message)
}

func (l *Logger) write(level, text string) {
	log.Printf("%s: %s: %s", l.module, level, text)
	if l.db == nil {
		return
	}
	record := &LogRecord{
		Time:   time.Now(),
		Module: l.module,
		Level:  level,
		Text:   text,
	}
	if err := l.db.WriteLogMessage(record); err != nil {
		log.Printf("%s: ERROR: write log record: %v", l.module, err)
	}
}
