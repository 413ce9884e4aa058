package logger

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/your-org/forms-backend/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LoggingConfig
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{"json debug", config.LoggingConfig{Level: "debug", Format: "json"}, logrus.DebugLevel, true},
		{"text warn", config.LoggingConfig{Level: "warn", Format: "text"}, logrus.WarnLevel, false},
		{"bad level", config.LoggingConfig{Level: "loud"}, logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.cfg)
			if l.GetLevel() != tt.wantLevel {
				t.Errorf("level = %v, want %v", l.GetLevel(), tt.wantLevel)
			}
			_, isJSON := l.Formatter.(*logrus.JSONFormatter)
			if isJSON != tt.wantJSON {
				t.Errorf("json formatter = %v, want %v", isJSON, tt.wantJSON)
			}
		})
	}
}
