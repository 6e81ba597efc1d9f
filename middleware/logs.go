package middleware

import (
	"Hearth/Models"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LogConfig holds configuration for the logging middleware
type LogConfig struct {
	// Enable console logging
	Console bool
	// Enable file logging
	File bool
	// Log file path
	LogFilePath string
	// Include the authenticated member in logs
	IncludeMember bool
	// Skip logging for specific paths
	SkipPaths []string
}

// LogData contains all the information that will be logged
type LogData struct {
	Timestamp time.Time     `json:"timestamp"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Status    int           `json:"status"`
	Latency   time.Duration `json:"latency"`
	IP        string        `json:"ip"`
	MemberID  interface{}   `json:"member_id,omitempty"`
	Member    string        `json:"member,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// DefaultLogConfig returns a default configuration for the logging middleware
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Console:       true,
		File:          true,
		LogFilePath:   "logs/requests.log",
		IncludeMember: true,
		SkipPaths:     []string{"/health"},
	}
}

var logFileMu sync.Mutex

func logToFile(path, line string) {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("Error opening log file %s: %v\n", path, err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		log.Printf("Error writing to log file %s: %v\n", path, err)
	}
}

// LoggingMiddleware creates a new logging middleware with the given configuration
func LoggingMiddleware(config ...LogConfig) fiber.Handler {
	cfg := DefaultLogConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	// Ensure logs directory exists
	if cfg.File {
		if err := os.MkdirAll("logs", 0755); err != nil {
			log.Printf("Error creating logs directory: %v\n", err)
		}
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Check if we should skip this path
		for _, skipPath := range cfg.SkipPaths {
			if c.Path() == skipPath {
				return c.Next()
			}
		}

		err := c.Next()

		latency := time.Since(start)

		data := LogData{
			Timestamp: start,
			Method:    c.Method(),
			Path:      c.Path(),
			Status:    c.Response().StatusCode(),
			Latency:   latency,
			IP:        c.IP(),
		}

		if cfg.IncludeMember {
			if member, ok := c.Locals("member").(Models.Member); ok {
				data.MemberID = member.ID
				data.Member = member.Name
			}
		}

		if err != nil {
			data.Error = err.Error()
		}

		if cfg.Console {
			memberStr := ""
			if data.Member != "" {
				memberStr = fmt.Sprintf(" member:%v(%s)", data.MemberID, data.Member)
			}
			log.Printf(
				"[%s] %s %s %d %s %s%s",
				start.Format("2006-01-02 15:04:05"),
				data.Method,
				data.Path,
				data.Status,
				latency,
				data.IP,
				memberStr,
			)
		}

		if cfg.File {
			jsonData, _ := json.Marshal(data)
			logToFile(cfg.LogFilePath, string(jsonData))
		}

		return err
	}
}

// RequestLogger creates a middleware that logs detailed request information
func RequestLogger() fiber.Handler {
	return LoggingMiddleware(DefaultLogConfig())
}
