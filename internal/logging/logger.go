package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает имя уровня (регистр не важен). Неизвестное имя даёт INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger представляет логгер компонента
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	mu              sync.RWMutex
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = newConsoleLogger("main", os.Stdout, INFO)
	logDir        = ""
)

func newConsoleLogger(component string, out io.Writer, level LogLevel) *Logger {
	return &Logger{
		component:       component,
		consoleLogger:   log.New(out, "", log.LstdFlags),
		minConsoleLevel: level,
		minFileLevel:    level,
	}
}

// NewLogger создаёт логгер компонента. Если задан каталог логов
// (SetLogDir), сообщения дублируются в файл компонента.
func NewLogger(component string) (*Logger, error) {
	defaultMu.RLock()
	dir := logDir
	level := defaultLogger.level()
	defaultMu.RUnlock()

	logger := newConsoleLogger(component, os.Stdout, level)
	if dir == "" {
		return logger, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("%s_%s.log", component, timestamp))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}
	logger.file = file
	logger.fileLogger = log.New(file, "", log.LstdFlags)
	logger.minFileLevel = DEBUG
	return logger, nil
}

// InitDefaultLogger настраивает общий логгер: имя компонента, уровень и каталог файлов
func InitDefaultLogger(component string, level LogLevel, dir string) error {
	defaultMu.Lock()
	logDir = dir
	defaultLogger = newConsoleLogger(component, os.Stdout, level)
	defaultMu.Unlock()

	if dir == "" {
		return nil
	}
	logger, err := NewLogger(component)
	if err != nil {
		return err
	}
	logger.SetLevel(level, DEBUG)

	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
	return nil
}

// SetOutput перенаправляет консольный вывод общего логгера (используется в тестах)
func SetOutput(w io.Writer) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger.consoleLogger.SetOutput(w)
}

func getDefault() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func (l *Logger) level() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.minConsoleLevel
}

// SetLevel меняет пороги вывода в консоль и в файл
func (l *Logger) SetLevel(consoleLevel, fileLevel LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minConsoleLevel = consoleLevel
	l.minFileLevel = fileLevel
}

// Close закрывает файл логов, если он открыт
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) {
	l.logMessage(TRACE, format, args...)
}

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logMessage(DEBUG, format, args...)
}

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) {
	l.logMessage(INFO, format, args...)
}

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logMessage(WARN, format, args...)
}

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) {
	l.logMessage(ERROR, format, args...)
}

// logMessage внутренняя функция для логирования
func (l *Logger) logMessage(level LogLevel, format string, args ...interface{}) {
	l.mu.RLock()
	toConsole := level >= l.minConsoleLevel
	toFile := l.fileLogger != nil && level >= l.minFileLevel
	l.mu.RUnlock()

	if !toConsole && !toFile {
		return
	}

	message := fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))
	if toFile {
		l.fileLogger.Println(message)
	}
	if toConsole {
		l.consoleLogger.Println(message)
	}
}

// Trace логирует сообщение уровня TRACE общим логгером
func Trace(format string, args ...interface{}) {
	getDefault().Trace(format, args...)
}

// Debug логирует сообщение уровня DEBUG общим логгером
func Debug(format string, args ...interface{}) {
	getDefault().Debug(format, args...)
}

// Info логирует сообщение уровня INFO общим логгером
func Info(format string, args ...interface{}) {
	getDefault().Info(format, args...)
}

// Warn логирует сообщение уровня WARN общим логгером
func Warn(format string, args ...interface{}) {
	getDefault().Warn(format, args...)
}

// Error логирует сообщение уровня ERROR общим логгером
func Error(format string, args ...interface{}) {
	getDefault().Error(format, args...)
}
