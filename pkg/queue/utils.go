package queue

import (
	"fmt"
	"strings"
	"time"
)

// Task represents a unit of work in the queue
type Task struct {
	ID         string                 `json:"id"`
	Type       TaskType               `json:"type"`
	Data       map[string]interface{} `json:"data"`
	ExecuteAt  time.Time              `json:"execute_at"`
	CreatedAt  time.Time              `json:"created_at"`
	Attempts   int                    `json:"attempts"`
	MaxRetries int                    `json:"max_retries"`
}

// Validate checks if the task is valid
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("task ID is required")
	}
	if strings.TrimSpace(string(t.Type)) == "" {
		return fmt.Errorf("task type is required")
	}
	if t.Data == nil {
		t.Data = make(map[string]interface{})
	}
	return nil
}

// GetString returns a string value from task data
func (t *Task) GetString(key string) string {
	if val, ok := t.Data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetStrings returns a string list from task data. After a JSON round trip
// lists arrive as []interface{}.
func (t *Task) GetStrings(key string) []string {
	switch v := t.Data[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// GetFloat returns a numeric value from task data
func (t *Task) GetFloat(key string) float64 {
	switch v := t.Data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// GetBool returns a bool value from task data
func (t *Task) GetBool(key string) bool {
	v, _ := t.Data[key].(bool)
	return v
}

// GetTime returns a time value from task data
func (t *Task) GetTime(key string) time.Time {
	if str := t.GetString(key); str != "" {
		if parsed, err := time.Parse(time.RFC3339, str); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
