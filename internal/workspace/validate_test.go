package workspace

import "testing"

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "default", false},
		{"valid with numbers", "client123", false},
		{"valid with hyphen", "acme-corp", false},
		{"valid with underscore", "acme_corp", false},
		{"valid single char", "a", false},
		{"empty", "", true},
		{"uppercase", "Acme", true},
		{"space", "acme corp", true},
		{"dot", "acme.corp", true},
		{"slash", "acme/corp", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
