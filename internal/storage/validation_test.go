package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/sentinel/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "test"},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: "  \t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "param")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmptyString) {
				t.Errorf("expected ErrEmptyString, got %v", err)
			}
		})
	}
}

func TestValidateActivity(t *testing.T) {
	tests := []struct {
		record  *model.ActivityRecord
		wantErr error
		name    string
	}{
		{name: "nil record", record: nil, wantErr: ErrNilParameter},
		{name: "missing action", record: &model.ActivityRecord{Timestamp: time.Now()}, wantErr: ErrInvalidActivity},
		{name: "missing timestamp", record: &model.ActivityRecord{Action: model.ActivityForwarded}, wantErr: ErrInvalidActivity},
		{name: "valid", record: &model.ActivityRecord{Action: model.ActivityForwarded, Timestamp: time.Now()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateActivity(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateActivity() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
