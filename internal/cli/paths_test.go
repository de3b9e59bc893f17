package cli

import (
	"reflect"
	"strings"
	"testing"
)

func TestParsePaths(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    map[string]string
		wantErr bool
		errMsg  string
	}{
		{
			name:  "camel case key",
			input: []string{"frontendDir=apps/web"},
			want:  map[string]string{"FRONTEND_DIR": "apps/web"},
		},
		{
			name:  "comma-separated pairs",
			input: []string{"frontend_dir=web, BACKEND_DIR=api"},
			want:  map[string]string{"FRONTEND_DIR": "web", "BACKEND_DIR": "api"},
		},
		{
			name:  "later value wins",
			input: []string{"srcDir=src", "SRC_DIR=lib"},
			want:  map[string]string{"SRC_DIR": "lib"},
		},
		{
			name:  "empty input",
			input: nil,
			want:  map[string]string{},
		},
		{
			name:    "missing equals",
			input:   []string{"frontendDir"},
			wantErr: true,
			errMsg:  "expected VAR=dir",
		},
		{
			name:    "missing key",
			input:   []string{"=web"},
			wantErr: true,
			errMsg:  "expected VAR=dir",
		},
		{
			name:    "empty dir",
			input:   []string{"frontendDir="},
			wantErr: true,
			errMsg:  "path is empty",
		},
		{
			name:    "absolute dir",
			input:   []string{"frontendDir=/var/www"},
			wantErr: true,
			errMsg:  "is absolute",
		},
		{
			name:    "escaping dir",
			input:   []string{"frontendDir=../other"},
			wantErr: true,
			errMsg:  "leaves the project",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePaths(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParsePaths() expected error containing %q, got nil", tt.errMsg)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ParsePaths() error = %q, want error containing %q", err.Error(), tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePaths() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitNames(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"separate args", []string{"base", "web"}, []string{"base", "web"}},
		{"comma list", []string{"base,web"}, []string{"base", "web"}},
		{"blanks dropped, repeats kept", []string{" web ,", "base", "web"}, []string{"web", "base", "web"}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitNames(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitNames() = %v, want %v", got, tt.want)
			}
		})
	}
}
