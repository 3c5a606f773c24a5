package middleware

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"Vistoria/Models"

	"github.com/gofiber/fiber/v2"
)

// LogData is one request log line.
type LogData struct {
	Timestamp time.Time     `json:"timestamp"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Status    int           `json:"status"`
	Latency   time.Duration `json:"latency"`
	IP        string        `json:"ip"`
	UserAgent string        `json:"user_agent"`
	Operator  string        `json:"operator,omitempty"`
	Error     string        `json:"error,omitempty"`
}

var skipPaths = map[string]bool{
	"/health": true,
}

// RequestLogger logs every request as a JSON line to the console and to
// logs/requests.log. Photo payloads make bodies enormous, so bodies are
// never logged.
func RequestLogger() fiber.Handler {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
	}

	return func(c *fiber.Ctx) error {
		if skipPaths[c.Path()] {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		data := LogData{
			Timestamp: start,
			Method:    c.Method(),
			Path:      c.Path(),
			Status:    c.Response().StatusCode(),
			Latency:   time.Since(start),
			IP:        c.IP(),
			UserAgent: c.Get("User-Agent"),
		}
		if user, ok := c.Locals("user").(Models.UserProfile); ok {
			data.Operator = user.DisplayName
		}
		if err != nil {
			data.Error = err.Error()
		}

		line, _ := json.Marshal(data)
		log.Println(string(line))
		logToFile("logs/requests.log", string(line))

		return err
	}
}

func logToFile(path, message string) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}
	defer file.Close()

	if _, err := file.WriteString(message + "\n"); err != nil {
		log.Printf("Error writing to log file: %v\n", err)
	}
}
