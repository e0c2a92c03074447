package validation

import (
	"strings"
	"testing"
)

func TestValidateRoomID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "r1", false},
		{"uuid", "5f1c2b8e-4a6d-4e0b-9b7a-1f2e3d4c5b6a", false},
		{"empty", "", true},
		{"whitespace", "room one", true},
		{"slash", "r1/../r2", true},
		{"too long", strings.Repeat("a", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoomID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRoomID() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUserID(t *testing.T) {
	if err := ValidateUserID("u1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateUserID(""); err == nil {
		t.Error("expected error for empty user ID")
	}
}

func TestValidateDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"empty allowed", "", false},
		{"unicode", "Zoë", false},
		{"too long", strings.Repeat("x", 101), true},
		{"invalid utf8", string([]byte{0xff, 0xfe}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDisplayName(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDisplayName() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"ws", "ws://localhost:8081/ws", false},
		{"wss", "wss://office.example.com/events", false},
		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"no host", "ws:///path", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateVolume(t *testing.T) {
	if err := ValidateVolume(0.1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateVolume(1.5); err == nil {
		t.Error("expected error for volume above 1")
	}
}
