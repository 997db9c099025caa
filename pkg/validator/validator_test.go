package validator

import "testing"

type sample struct {
	Language string `validate:"required,language"`
	Status   string `validate:"omitempty,job_status"`
	Gender   string `validate:"omitempty,gender"`
}

func TestCustomTags(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		in      sample
		wantErr bool
	}{
		{"valid", sample{Language: "es", Status: "dubbing", Gender: "female"}, false},
		{"regional code", sample{Language: "pt-BR"}, false},
		{"unsupported language", sample{Language: "xx"}, true},
		{"missing language", sample{}, true},
		{"unknown status", sample{Language: "en", Status: "processing"}, true},
		{"unknown gender", sample{Language: "en", Gender: "robot"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.Validate(&tt.in); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
