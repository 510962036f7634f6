package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *DocumentChunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &DocumentChunk{Seq: 0, Text: "chunk text", Source: "profile.pdf"},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty text",
			chunk:   &DocumentChunk{Seq: 0, Text: "", Source: "profile.pdf"},
			wantErr: ErrEmptyText,
		},
		{
			name:    "empty source",
			chunk:   &DocumentChunk{Seq: 0, Text: "chunk text", Source: ""},
			wantErr: ErrEmptySource,
		},
		{
			name:    "negative sequence",
			chunk:   &DocumentChunk{Seq: -1, Text: "chunk text", Source: "profile.pdf"},
			wantErr: ErrInvalidChunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *StoredRecord
		wantErr error
	}{
		{
			name:    "valid record",
			record:  &StoredRecord{Text: "chunk", Vector: []float32{0.1, 0.2}},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "empty text",
			record:  &StoredRecord{Text: "", Vector: []float32{0.1}},
			wantErr: ErrEmptyText,
		},
		{
			name:    "missing vector",
			record:  &StoredRecord{Text: "chunk"},
			wantErr: ErrEmptyVector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRecord() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTurn(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Hour)
	futureTime := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name    string
		turn    *ConversationTurn
		wantErr error
	}{
		{
			name:    "valid human turn",
			turn:    &ConversationTurn{Speaker: SpeakerTypeHuman, Text: "Hello", Timestamp: validTime},
			wantErr: nil,
		},
		{
			name:    "valid AI turn",
			turn:    &ConversationTurn{Speaker: SpeakerTypeAI, Text: "Hi there", Timestamp: validTime},
			wantErr: nil,
		},
		{
			name:    "nil turn",
			turn:    nil,
			wantErr: ErrInvalidTurn,
		},
		{
			name:    "empty text",
			turn:    &ConversationTurn{Speaker: SpeakerTypeHuman, Text: "", Timestamp: validTime},
			wantErr: ErrEmptyText,
		},
		{
			name:    "invalid speaker",
			turn:    &ConversationTurn{Speaker: 0, Text: "Hello", Timestamp: validTime},
			wantErr: ErrInvalidSpeakerType,
		},
		{
			name:    "future timestamp",
			turn:    &ConversationTurn{Speaker: SpeakerTypeHuman, Text: "Hello", Timestamp: futureTime},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTurn(tt.turn)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateTurn() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTurn() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSpeakerType(t *testing.T) {
	if err := ValidateSpeakerType(SpeakerTypeHuman); err != nil {
		t.Errorf("ValidateSpeakerType(Human) = %v", err)
	}
	if err := ValidateSpeakerType(SpeakerTypeAI); err != nil {
		t.Errorf("ValidateSpeakerType(AI) = %v", err)
	}
	if err := ValidateSpeakerType(99); !errors.Is(err, ErrInvalidSpeakerType) {
		t.Errorf("ValidateSpeakerType(99) = %v, want ErrInvalidSpeakerType", err)
	}
}
