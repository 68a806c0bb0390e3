package models

import (
	"testing"
	"time"
)

func TestUser_NotificationChannel(t *testing.T) {
	tests := []struct {
		name     string
		user     *User
		expected string
	}{
		{"nil user", nil, ""},
		{"unlinked", &User{}, ""},
		{"whitespace only", &User{TelegramChatID: "   "}, ""},
		{"linked", &User{TelegramChatID: " 123456 "}, "123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.NotificationChannel(); got != tt.expected {
				t.Errorf("NotificationChannel() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUser_DisplayName(t *testing.T) {
	if got := (*User)(nil).DisplayName(); got != "Driver" {
		t.Errorf("expected fallback name for nil user, got %s", got)
	}
	if got := (&User{FullName: ""}).DisplayName(); got != "Driver" {
		t.Errorf("expected fallback name for empty name, got %s", got)
	}
	if got := (&User{FullName: "Ana Silva"}).DisplayName(); got != "Ana Silva" {
		t.Errorf("expected full name, got %s", got)
	}
}

func TestVehicle_Label(t *testing.T) {
	tests := []struct {
		name     string
		vehicle  Vehicle
		expected string
	}{
		{"full", Vehicle{Manufacturer: "Toyota", Model: "Corolla", LicensePlate: "ABC-123"}, "Toyota Corolla (ABC-123)"},
		{"no plate", Vehicle{Manufacturer: "Honda", Model: "Civic"}, "Honda Civic"},
		{"empty", Vehicle{}, "Vehicle"},
		{"plate only", Vehicle{LicensePlate: "XYZ"}, "Vehicle (XYZ)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vehicle.Label(); got != tt.expected {
				t.Errorf("Label() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNotificationStatus_IsValid(t *testing.T) {
	for _, s := range []NotificationStatus{StatusPending, StatusSent, StatusCompleted, StatusCancelled} {
		if !s.IsValid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if NotificationStatus("snoozed").IsValid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestMaintenancePrediction_StructFields(t *testing.T) {
	now := time.Now()
	p := &MaintenancePrediction{
		MaintenanceType:      ServiceOilChange,
		PredictedDate:        now,
		PredictedMileage:     5000,
		NotificationStatus:   StatusSent,
		LastNotificationSent: &now,
		ConfidenceLevel:      0.5,
		IsActive:             true,
	}

	if p.MaintenanceType != "oil_change" {
		t.Errorf("Expected MaintenanceType to be 'oil_change', got %s", p.MaintenanceType)
	}
	if p.PredictedMileage != 5000 {
		t.Errorf("Expected PredictedMileage to be 5000, got %d", p.PredictedMileage)
	}
	if p.LastNotificationSent == nil {
		t.Errorf("Expected LastNotificationSent to be set, got nil")
	}
	if !p.IsActive {
		t.Errorf("Expected IsActive to be true, got %v", p.IsActive)
	}
}
