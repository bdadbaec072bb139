// Package gelf ships log records to a Graylog input over UDP.
package gelf

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

// Syslog severities used by GELF.
const (
	levelError   = 3
	levelWarning = 4
	levelInfo    = 6
	levelDebug   = 7
)

// Writer sends GELF messages over UDP and implements io.Writer so it can
// sit behind a slog handler via io.MultiWriter. Each Write is expected to
// carry one slog JSON record; other input is sent as a plain message.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("gelf: dial %s: %w", addr, err)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service
	}

	return &Writer{conn: conn, hostname: hostname, service: service}, nil
}

// Write implements io.Writer. Each call sends one GELF message. Errors
// are swallowed so that logging never fails because of the sink.
func (w *Writer) Write(p []byte) (int, error) {
	payload, err := json.Marshal(w.message(p))
	if err != nil {
		return len(p), nil
	}

	// Fire-and-forget
	_, _ = w.conn.Write(payload)
	return len(p), nil
}

func (w *Writer) Close() error {
	return w.conn.Close()
}

// message converts one log line into a GELF message.
func (w *Writer) message(p []byte) map[string]any {
	msg := map[string]any{
		"version":  "1.1",
		"host":     w.hostname,
		"_service": w.service,
	}

	var record map[string]any
	if err := json.Unmarshal(p, &record); err != nil {
		msg["short_message"] = strings.TrimRight(string(p), "\n")
		msg["timestamp"] = unixSeconds(time.Now())
		msg["level"] = levelInfo
		return msg
	}

	short, _ := record["msg"].(string)
	msg["short_message"] = short
	msg["level"] = severity(record["level"])
	msg["timestamp"] = unixSeconds(time.Now())
	if ts, ok := record["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			msg["timestamp"] = unixSeconds(t)
		}
	}

	for k, v := range record {
		switch k {
		case "msg", "level", "time":
			continue
		case "id":
			// "_id" is reserved by GELF
			k = "record_id"
		}
		msg["_"+k] = additional(v)
	}
	return msg
}

func severity(level any) int {
	s, _ := level.(string)
	switch {
	case strings.HasPrefix(s, "ERROR"):
		return levelError
	case strings.HasPrefix(s, "WARN"):
		return levelWarning
	case strings.HasPrefix(s, "DEBUG"):
		return levelDebug
	}
	return levelInfo
}

// additional flattens a field value into a GELF string or number.
func additional(v any) any {
	switch v := v.(type) {
	case string, float64:
		return v
	case bool:
		return fmt.Sprint(v)
	case nil:
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
