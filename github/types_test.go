package github

import (
	"reflect"
	"testing"
)

func TestParseScopes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Scope
		wantErr  bool
	}{
		{
			name:     "single scope",
			input:    "repository",
			expected: []Scope{ScopeRepository},
		},
		{
			name:     "all three scopes",
			input:    "enterprise,organization,repository",
			expected: []Scope{ScopeEnterprise, ScopeOrganization, ScopeRepository},
		},
		{
			name:     "whitespace and case",
			input:    " Enterprise , REPOSITORY ",
			expected: []Scope{ScopeEnterprise, ScopeRepository},
		},
		{
			name:     "empty parts skipped",
			input:    "organization,,",
			expected: []Scope{ScopeOrganization},
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:    "invalid scope",
			input:   "repository,team",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScopes(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseScopes(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScopes(%q) returned error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseScopes(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseFeatures(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    []Feature
		wantUnknown []string
	}{
		{
			name:     "all keyword",
			input:    "all",
			expected: []Feature{FeatureSecretScanning, FeatureCodeScanning, FeatureDependabot},
		},
		{
			name:     "empty selects all",
			input:    "",
			expected: []Feature{FeatureSecretScanning, FeatureCodeScanning, FeatureDependabot},
		},
		{
			name:     "explicit subset",
			input:    "secretscanning,dependabot",
			expected: []Feature{FeatureSecretScanning, FeatureDependabot},
		},
		{
			name:        "unknown names reported",
			input:       "codescanning,sbom,licenses",
			expected:    []Feature{FeatureCodeScanning},
			wantUnknown: []string{"sbom", "licenses"},
		},
		{
			name:        "only unknown names",
			input:       "sbom",
			expected:    nil,
			wantUnknown: []string{"sbom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unknown := ParseFeatures(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("features = %v, want %v", got, tt.expected)
			}
			if !reflect.DeepEqual(unknown, tt.wantUnknown) {
				t.Errorf("unknown = %v, want %v", unknown, tt.wantUnknown)
			}
		})
	}
}

func TestFeatureSlug(t *testing.T) {
	tests := []struct {
		feature  Feature
		expected string
	}{
		{FeatureSecretScanning, "secret_scanning"},
		{FeatureCodeScanning, "code_scanning"},
		{FeatureDependabot, "dependabot"},
	}

	for _, tt := range tests {
		if got := tt.feature.Slug(); got != tt.expected {
			t.Errorf("%s.Slug() = %q, want %q", tt.feature, got, tt.expected)
		}
	}
}

func TestSplitRepository(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Repository
		wantErr  bool
	}{
		{
			name:     "owner and name",
			input:    "octo-org/hello-world",
			expected: Repository{Owner: "octo-org", Name: "hello-world"},
		},
		{
			name:    "missing owner",
			input:   "/hello-world",
			wantErr: true,
		},
		{
			name:    "missing name",
			input:   "octo-org/",
			wantErr: true,
		},
		{
			name:    "no separator",
			input:   "hello-world",
			wantErr: true,
		},
		{
			name:    "too many parts",
			input:   "a/b/c",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitRepository(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SplitRepository(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitRepository(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("SplitRepository(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
