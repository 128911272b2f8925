package config

import (
	"errors"
	"fmt"
)

// ValidationError reports one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the loaded configuration and joins every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Service.Port < 1 || c.Service.Port > 65535 {
		errs = append(errs, &ValidationError{Field: "service.port", Message: "must be between 1 and 65535"})
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		errs = append(errs, &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"})
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, &ValidationError{Field: "logging.format", Message: "must be one of: json, console"})
	}

	switch c.Classification.LabelLocale {
	case "en", "ko":
	default:
		errs = append(errs, &ValidationError{Field: "classification.label_locale", Message: "must be one of: en, ko"})
	}

	g := c.Classification.Gaps
	for field, v := range map[string]int{
		"classification.gaps.geo_market":     g.GeoMarket,
		"classification.gaps.explicit_lead":  g.ExplicitLead,
		"classification.gaps.explicit_trail": g.ExplicitTrail,
		"classification.gaps.domain_market":  g.DomainMarket,
	} {
		if v < 0 || v > maxGap {
			errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf("must be between 0 and %d", maxGap)})
		}
	}

	if c.News.MinPerCompany > c.News.MaxPerCompany {
		errs = append(errs, &ValidationError{Field: "news.min_per_company", Message: "must not exceed news.max_per_company"})
	}

	if c.Naver.Display < 1 || c.Naver.Display > maxNaverDisplay {
		errs = append(errs, &ValidationError{Field: "naver.display", Message: fmt.Sprintf("must be between 1 and %d", maxNaverDisplay)})
	}

	return errors.Join(errs...)
}

// maxGap keeps bounded repetitions well inside the regexp engine's limit.
const maxGap = 200

const maxNaverDisplay = 100
