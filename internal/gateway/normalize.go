package gateway

import (
	"encoding/json"
	"time"
)

// Раскладки дат, которые клиенты присылают на практике. Всё, что
// распозналось, переписывается в канонический RFC3339 UTC с 'Z'.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeBody приводит все строковые значения-даты в JSON-теле к
// каноническому виду, рекурсивно по объектам и массивам. Остальные
// значения не трогаются.
func NormalizeBody(body []byte) ([]byte, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeValue(payload))
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			v[key] = normalizeValue(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = normalizeValue(item)
		}
		return v
	case string:
		return normalizeDatetime(v)
	default:
		return value
	}
}

// normalizeDatetime переписывает строку-дату в RFC3339 UTC. Строки без
// вида даты возвращаются как есть, дешёвая проверка формы отсекает
// почти всё до разбора.
func normalizeDatetime(s string) string {
	if !looksLikeDatetime(s) {
		return s
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339Nano)
		}
	}
	return s
}

func looksLikeDatetime(s string) bool {
	if len(s) < 10 {
		return false
	}
	for _, i := range []int{0, 1, 2, 3, 5, 6, 8, 9} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s[4] == '-' && s[7] == '-'
}
