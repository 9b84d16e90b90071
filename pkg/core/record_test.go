package core

import (
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Kind
		hasError bool
	}{
		{name: "signalements", input: "signalements", expected: KindSignalements},
		{name: "arretes", input: "arretes", expected: KindArretes},
		{name: "lois", input: "lois", expected: KindLois},
		{name: "imports", input: "imports", expected: KindImports},
		{name: "uppercase is normalized", input: "Signalements", expected: KindSignalements},
		{name: "surrounding spaces", input: "  arretes ", expected: KindArretes},
		{name: "unknown kind", input: "demandes", hasError: true},
		{name: "empty", input: "", hasError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := ParseKind(tt.input)
			if tt.hasError {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if k != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, k)
			}
		})
	}
}

func TestRecordValidate(t *testing.T) {
	valid := Record{
		Kind:      KindSignalements,
		ID:        "sig-1",
		Commune:   "oursville",
		Title:     "Lampadaire cassé",
		Status:    StatusNouveau,
		CreatedAt: time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r Record) Record
	}{
		{"missing id", func(r Record) Record { r.ID = ""; return r }},
		{"missing commune", func(r Record) Record { r.Commune = ""; return r }},
		{"missing created_at", func(r Record) Record { r.CreatedAt = time.Time{}; return r }},
		{"bad kind", func(r Record) Record { r.Kind = "demandes"; return r }},
		{"bad status", func(r Record) Record { r.Status = "fini"; return r }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.mutate(valid).Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSearchText(t *testing.T) {
	r := Record{Title: "Arrêté Voirie", Reference: "AR-2023-042", Body: "Circulation interdite"}
	expected := "Arrêté Voirie AR-2023-042 Circulation interdite"
	if got := r.SearchText(); got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}

	empty := Record{Title: "Seul"}
	if got := empty.SearchText(); got != "Seul" {
		t.Fatalf("empty parts should be skipped, got %q", got)
	}
}
