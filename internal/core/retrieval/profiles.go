package retrieval

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/duomind/duomind/internal/core/domain"
)

// DefaultProfiles mirrors the shipped mode tuning: normal mode leans on
// lexical precision for verbatim grounding, pro mode leans on semantic
// similarity for conceptual matches.
func DefaultProfiles() map[domain.RetrievalMode]domain.ModeProfile {
	return map[domain.RetrievalMode]domain.ModeProfile{
		domain.ModeNormal: {
			LexicalWeight:  0.7,
			SemanticWeight: 0.3,
			TopKLexical:    30,
			TopKSemantic:   30,
			FinalTopN:      5,
		},
		domain.ModePro: {
			LexicalWeight:  0.3,
			SemanticWeight: 0.7,
			TopKLexical:    30,
			TopKSemantic:   30,
			FinalTopN:      5,
		},
	}
}

// LoadProfiles reads mode profiles from a YAML file, falling back to the
// defaults for any mode the file does not mention. An empty path returns
// the defaults unchanged.
func LoadProfiles(path string) (map[domain.RetrievalMode]domain.ModeProfile, error) {
	profiles := DefaultProfiles()
	if path == "" {
		return profiles, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	var fileProfiles map[string]domain.ModeProfile
	if err := yaml.Unmarshal(raw, &fileProfiles); err != nil {
		return nil, fmt.Errorf("parse profiles file: %w", err)
	}

	for name, profile := range fileProfiles {
		mode, err := domain.ParseRetrievalMode(name)
		if err != nil {
			return nil, err
		}
		profiles[mode] = profile
	}

	if err := ValidateProfiles(profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// ValidateProfiles enforces per-profile sanity plus the mode contract:
// normal must be lexical-biased and pro must not be.
func ValidateProfiles(profiles map[domain.RetrievalMode]domain.ModeProfile) error {
	for mode, profile := range profiles {
		if err := profile.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", mode, err)
		}
	}

	normal, ok := profiles[domain.ModeNormal]
	if !ok {
		return domain.WrapError(domain.ErrInvalidInput, "validate profiles", fmt.Errorf("missing normal profile"))
	}
	pro, ok := profiles[domain.ModePro]
	if !ok {
		return domain.WrapError(domain.ErrInvalidInput, "validate profiles", fmt.Errorf("missing pro profile"))
	}
	if normal.LexicalWeight <= normal.SemanticWeight {
		return domain.WrapError(domain.ErrInvalidInput, "validate profiles",
			fmt.Errorf("normal profile must be lexical-biased: lexical=%v semantic=%v", normal.LexicalWeight, normal.SemanticWeight))
	}
	if pro.SemanticWeight < pro.LexicalWeight {
		return domain.WrapError(domain.ErrInvalidInput, "validate profiles",
			fmt.Errorf("pro profile must not be lexical-biased: lexical=%v semantic=%v", pro.LexicalWeight, pro.SemanticWeight))
	}
	return nil
}
