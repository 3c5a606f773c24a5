package Controllers

import (
	"bufio"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LogEntry mirrors the line shape the request logger writes.
type LogEntry struct {
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

const requestLogPath = "logs/requests.log"

func readLogEntries() ([]LogEntry, error) {
	file, err := os.Open(requestLogPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines rather than failing the whole read
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// GetLogs returns request log lines, optionally filtered by path and date.
// GET /api/logs
func GetLogs(c *fiber.Ctx) error {
	entries, err := readLogEntries()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to read logs",
			"error":   err.Error(),
		})
	}

	pathFilter := c.Query("path")
	dateStr := c.Query("date")
	var dayStart, dayEnd time.Time
	if dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid date format. Use YYYY-MM-DD",
			})
		}
		dayStart = parsed
		dayEnd = parsed.AddDate(0, 0, 1)
	}

	filtered := make([]LogEntry, 0, len(entries))
	for _, entry := range entries {
		if pathFilter != "" && entry.Path != pathFilter {
			continue
		}
		if dateStr != "" && (entry.Timestamp.Before(dayStart) || !entry.Timestamp.Before(dayEnd)) {
			continue
		}
		filtered = append(filtered, entry)
	}

	return c.JSON(fiber.Map{
		"logs":  filtered,
		"total": len(filtered),
	})
}

// GetLogStats aggregates the request log per path.
// GET /api/logs/stats
func GetLogStats(c *fiber.Ctx) error {
	entries, err := readLogEntries()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to read logs",
			"error":   err.Error(),
		})
	}

	type pathStats struct {
		Count   int     `json:"count"`
		Errors  int     `json:"errors"`
		AvgMs   float64 `json:"avg_latency_ms"`
		totalMs float64
	}

	stats := make(map[string]*pathStats)
	for _, entry := range entries {
		s, ok := stats[entry.Path]
		if !ok {
			s = &pathStats{}
			stats[entry.Path] = s
		}
		s.Count++
		s.totalMs += float64(entry.Latency.Milliseconds())
		if entry.Status >= 400 {
			s.Errors++
		}
	}
	for _, s := range stats {
		if s.Count > 0 {
			s.AvgMs = s.totalMs / float64(s.Count)
		}
	}

	return c.JSON(fiber.Map{
		"paths": stats,
		"total": len(entries),
	})
}
