package scoring

import (
	"time"
)

// Helpers d'accès au payload JSON des événements. Les nombres arrivent en
// float64 (décodage JSON générique), les dates en RFC3339.

func payloadTicketID(data map[string]interface{}) *int {
	if v, ok := payloadInt(data, "ticketId"); ok {
		return &v
	}
	return nil
}

func payloadInt(data map[string]interface{}, key string) (int, bool) {
	if data == nil {
		return 0, false
	}
	switch v := data[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func payloadString(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func payloadTime(data map[string]interface{}, key string) (time.Time, bool) {
	s := payloadString(data, key)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
