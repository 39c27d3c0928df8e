package logging

import (
	"encoding/json"
	"log/slog"
	"math"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"gorm.io/datatypes"
)

// logColumns maps attr keys onto dedicated system_logs columns. Any other key
// lands in the Extra JSON.
var logColumns = map[string]func(*models.SystemLog, slog.Value){
	"community_id": func(row *models.SystemLog, v slog.Value) { row.CommunityID = v.String() },
	"request_id":   func(row *models.SystemLog, v slog.Value) { row.RequestID = v.String() },
	"action":       func(row *models.SystemLog, v slog.Value) { row.Action = v.String() },
	"error":        func(row *models.SystemLog, v slog.Value) { row.Error = v.String() },
	"latency_ms":   func(row *models.SystemLog, v slog.Value) { row.LatencyMs = millis(v) },
	"user_id": func(row *models.SystemLog, v slog.Value) {
		id := v.String()
		row.UserID = &id
	},
}

// rowFor builds the stored row. Record attrs are applied after the scoped
// ones, so a repeated key takes the record's value.
func rowFor(r slog.Record, scoped []slog.Attr, prefix string) models.SystemLog {
	row := models.SystemLog{
		Timestamp: r.Time,
		Level:     r.Level.String(),
		Message:   r.Message,
	}

	extra := map[string]any{}
	put := func(key string, v slog.Value) {
		if set, ok := logColumns[key]; ok {
			set(&row, v)
			return
		}
		extra[key] = jsonValue(v)
	}
	for _, a := range scoped {
		put(a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		flatten(prefix, a, put)
		return true
	})

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			row.Extra = datatypes.JSON(b)
		}
	}
	return row
}

// flatten walks group attrs, joining keys with dots. Empty keys inline their group.
func flatten(prefix string, a slog.Attr, put func(string, slog.Value)) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, child := range v.Group() {
			flatten(p, child, put)
		}
		return
	}
	if a.Key == "" {
		return
	}
	put(prefix+a.Key, v)
}

func millis(v slog.Value) int {
	switch v.Kind() {
	case slog.KindFloat64:
		return int(math.Round(v.Float64()))
	case slog.KindInt64:
		return int(v.Int64())
	case slog.KindUint64:
		return int(v.Uint64())
	case slog.KindDuration:
		return int(v.Duration().Milliseconds())
	}
	return 0
}

func jsonValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindDuration, slog.KindTime:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.Any()
}
