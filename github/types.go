package github

import (
	"fmt"
	"strings"
)

// Scope is the level a security report is generated for.
type Scope string

const (
	ScopeEnterprise   Scope = "enterprise"
	ScopeOrganization Scope = "organization"
	ScopeRepository   Scope = "repository"
)

// Scopes lists all valid report scopes.
var Scopes = []Scope{ScopeEnterprise, ScopeOrganization, ScopeRepository}

// Feature is a GitHub Advanced Security feature alerts are collected from.
type Feature string

const (
	FeatureSecretScanning Feature = "secretscanning"
	FeatureCodeScanning   Feature = "codescanning"
	FeatureDependabot     Feature = "dependabot"
)

// Features lists all valid report features.
var Features = []Feature{FeatureSecretScanning, FeatureCodeScanning, FeatureDependabot}

// Slug returns the feature name used in report file names
// (e.g. "secret_scanning" for "secretscanning").
func (f Feature) Slug() string {
	switch f {
	case FeatureSecretScanning:
		return "secret_scanning"
	case FeatureCodeScanning:
		return "code_scanning"
	default:
		return string(f)
	}
}

// ParseScopes parses a comma separated scope list.
func ParseScopes(s string) ([]Scope, error) {
	var scopes []Scope
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		scope := Scope(strings.ToLower(part))
		switch scope {
		case ScopeEnterprise, ScopeOrganization, ScopeRepository:
			scopes = append(scopes, scope)
		default:
			return nil, fmt.Errorf("invalid report scope %q (valid scopes are %v)", part, Scopes)
		}
	}
	return scopes, nil
}

// ParseFeatures parses a comma separated feature list. "all" or an empty
// string selects every feature. Unknown names are returned separately so
// the caller can warn and proceed without them.
func ParseFeatures(s string) (features []Feature, unknown []string) {
	if s == "" || strings.EqualFold(s, "all") {
		return append([]Feature(nil), Features...), nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		feature := Feature(strings.ToLower(part))
		switch feature {
		case FeatureSecretScanning, FeatureCodeScanning, FeatureDependabot:
			features = append(features, feature)
		default:
			unknown = append(unknown, part)
		}
	}
	return features, unknown
}

// Repository identifies a repository by owner and name.
type Repository struct {
	Owner string
	Name  string
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// SplitRepository parses an "owner/name" repository identifier.
func SplitRepository(full string) (Repository, error) {
	parts := strings.Split(full, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repository{}, fmt.Errorf("invalid repository %q: must be in owner/name format", full)
	}
	return Repository{Owner: parts[0], Name: parts[1]}, nil
}
