package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger define la interfaz para logging estructurado.
// Las capas de la aplicación (Handler, Service, Repository) dependen
// únicamente de esta interfaz, nunca de la implementación concreta.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// ZerologLogger es la implementación concreta de la interfaz Logger sobre zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewLogger crea y retorna una nueva instancia del Logger con el nivel indicado.
// Esta función se invoca desde main.go.
func NewLogger(level string) Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	zl := zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	return &ZerologLogger{log: zl}
}

// withFields anexa el mapa de campos a un evento de zerolog.
func withFields(ev *zerolog.Event, fields map[string]interface{}) *zerolog.Event {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	return ev
}

func (l *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	withFields(l.log.Debug(), fields).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	withFields(l.log.Info(), fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	withFields(l.log.Warn(), fields).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, err error) {
	l.log.Error().Err(err).Msg(msg)
}

// Fatal registra el mensaje y termina el proceso.
func (l *ZerologLogger) Fatal(msg string, err error) {
	l.log.Fatal().Err(err).Msg(msg)
}
