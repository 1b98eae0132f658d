package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EvaluationProfile is a named bundle of evaluation tuning parameters
// (spec.md §5, §4.8): a business-hours window, the per-call evaluation
// timeout, and the audit context truncation cap. The business-hours
// window is parsed but not read by the environment attribute provider,
// which always uses [8, 18). Operators select a profile per
// deployment (e.g. "default", "strict") instead of hand-tuning every
// Config field.
type EvaluationProfile struct {
	Name string `yaml:"name" json:"name"`
	Code string `yaml:"code" json:"code"`

	BusinessHours BusinessHoursConfig `yaml:"business_hours" json:"business_hours"`

	EvaluationTimeoutMs int `yaml:"evaluation_timeout_ms" json:"evaluation_timeout_ms"`
	AuditContextCap     int `yaml:"audit_context_cap" json:"audit_context_cap"`
	CacheTTLSeconds     int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`
}

// BusinessHoursConfig is the business-hours window a profile declares.
// It is loaded and exposed only: `environment.IsBusinessHours` does not
// read it and always treats [8, 18) as business hours.
type BusinessHoursConfig struct {
	StartHour int `yaml:"start_hour" json:"start_hour"`
	EndHour   int `yaml:"end_hour" json:"end_hour"`
}

// EvaluationTimeout returns the profile's timeout as a time.Duration,
// falling back to 500ms if unset.
func (p *EvaluationProfile) EvaluationTimeout() time.Duration {
	if p.EvaluationTimeoutMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(p.EvaluationTimeoutMs) * time.Millisecond
}

// CacheTTL returns the profile's cache TTL as a time.Duration, falling
// back to 60s if unset.
func (p *EvaluationProfile) CacheTTL() time.Duration {
	if p.CacheTTLSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(p.CacheTTLSeconds) * time.Second
}

// LoadProfile loads an evaluation profile YAML by code. It searches
// profilesDir for profile_<code>.yaml.
func LoadProfile(profilesDir, code string) (*EvaluationProfile, error) {
	code = strings.ToLower(code)
	path := filepath.Join(profilesDir, fmt.Sprintf("profile_%s.yaml", code))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", code, err)
	}

	var profile EvaluationProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", code, err)
	}

	if profile.Code == "" {
		profile.Code = code
	}

	return &profile, nil
}

// LoadAllProfiles loads all profile_*.yaml files from profilesDir.
func LoadAllProfiles(profilesDir string) (map[string]*EvaluationProfile, error) {
	matches, err := filepath.Glob(filepath.Join(profilesDir, "profile_*.yaml"))
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*EvaluationProfile, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var profile EvaluationProfile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		if profile.Code == "" {
			base := filepath.Base(path)
			profile.Code = strings.TrimSuffix(strings.TrimPrefix(base, "profile_"), ".yaml")
		}

		profiles[profile.Code] = &profile
	}

	return profiles, nil
}
