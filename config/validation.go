package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the required settings are present.
func ValidateConfig(cfg *Config) error {
	required := map[string]string{
		"DB_HOST":    cfg.DBHost,
		"DB_USER":    cfg.DBUser,
		"DB_NAME":    cfg.DBName,
		"JWT_SECRET": cfg.JWTSecret,
	}

	var errs []string
	for name, value := range required {
		if value == "" {
			errs = append(errs, ValidationError{Field: name, Message: "is required"}.Error())
		}
	}

	// Image storage is optional but must be configured as a pair.
	if (cfg.S3Bucket == "") != (cfg.AWSRegion == "") {
		errs = append(errs, ValidationError{
			Field:   "S3_BUCKET_NAME/AWS_REGION",
			Message: "must be set together",
		}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
