package logs

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

const (
	Debug = "DEBUG"
	Info  = "INFO"
	Warn  = "WARN"
	Error = "ERROR"
	Fatal = "FATAL"
)

var (
	mu     sync.Mutex
	logger = log.New(os.Stdout, "", 0)
)

// SetOutput перенаправляет структурированные логи (в тестах - в буфер).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// LogJSON пишет одну строку JSON с полями severity, message, time и переданными полями.
// Ошибки в полях превращаются в строки, иначе json.Marshal выдаст для них {}.
func LogJSON(level, message string, fields map[string]interface{}) {
	logEntry := map[string]interface{}{
		"severity": level,
		"message":  message,
		"time":     time.Now().Format(time.RFC3339),
	}
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		logEntry[k] = v
	}
	jsonLog, err := json.Marshal(logEntry)
	if err != nil {
		jsonLog, _ = json.Marshal(map[string]interface{}{
			"severity": Error,
			"message":  "failed to encode log entry",
			"error":    err.Error(),
		})
	}

	mu.Lock()
	defer mu.Unlock()
	logger.Println(string(jsonLog))
}
