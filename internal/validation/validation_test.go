package validation

import (
	"errors"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		wantErr   bool
	}{
		{"simple", "kitchen", false},
		{"with dots", "node.red.v2", false},
		{"with spaces", "living room", false},
		{"empty", "", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"parent", "..", true},
		{"embedded parent", "foo..bar", true},
		{"leading slash", "/etc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.candidate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) error = %v, wantErr %v", tt.candidate, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("expected ErrInvalidName, got %v", err)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		candidate string
		wantErr   bool
	}{
		{"2024-01-01.json", false},
		{"flows.json", false},
		{".json", false},
		{"flows.txt", true},
		{"flows.JSON", true},
		{"flows", true},
		{"../flows.json", true},
		{"dir/flows.json", true},
		{`dir\flows.json`, true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			err := ValidateFilename(tt.candidate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFilename(%q) error = %v, wantErr %v", tt.candidate, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFilename_SuffixCheckAfterBasicCheck(t *testing.T) {
	// passes the segment check but not the suffix check
	if err := ValidateName("notes.txt"); err != nil {
		t.Fatalf("expected basic check to pass, got %v", err)
	}

	err := ValidateFilename("notes.txt")
	var invalid *InvalidNameError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidNameError, got %T", err)
	}
	if invalid.Candidate != "notes.txt" {
		t.Errorf("expected candidate 'notes.txt', got %q", invalid.Candidate)
	}
	if invalid.Kind != "filename" {
		t.Errorf("expected kind 'filename', got %q", invalid.Kind)
	}
}

func TestInvalidNameError_Message(t *testing.T) {
	err := ValidateName("../secret")
	want := `invalid installation name "../secret": must not contain ".."`
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestIsBackupFilename(t *testing.T) {
	if !IsBackupFilename("a.json") {
		t.Error("expected a.json to be a backup filename")
	}
	if IsBackupFilename("a.json.bak") {
		t.Error("expected a.json.bak not to be a backup filename")
	}
}
