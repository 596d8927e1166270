package config

import (
	"fmt"
	"net/url"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Database.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "database.url",
			Message: "database URL is required",
		})
	} else if _, err := url.Parse(c.Database.URL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "database.url",
			Message: "invalid database URL",
		})
	}

	if _, err := url.Parse(c.Register.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "register.base_url",
			Message: "invalid register base URL",
		})
	}

	if _, err := time.Parse("02/01/2006", c.Register.SinceDate); err != nil {
		errors = append(errors, ValidationError{
			Field:   "register.since_date",
			Message: "since_date must be dd/mm/yyyy",
		})
	}

	if c.Register.PageSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "register.page_size",
			Message: "page_size must be positive",
		})
	}

	if c.Register.Workers < 1 {
		errors = append(errors, ValidationError{
			Field:   "register.workers",
			Message: "workers must be positive",
		})
	}

	if c.Archive.SinceYear < 1964 {
		errors = append(errors, ValidationError{
			Field:   "archive.since_year",
			Message: "since_year must be 1964 or later",
		})
	}

	if c.Extract.StartThreshold < 1 || c.Extract.StartThreshold > 100 {
		errors = append(errors, ValidationError{
			Field:   "extract.start_threshold",
			Message: "start_threshold must be between 1 and 100",
		})
	}

	if c.Extract.EndThreshold < 1 || c.Extract.EndThreshold > 100 {
		errors = append(errors, ValidationError{
			Field:   "extract.end_threshold",
			Message: "end_threshold must be between 1 and 100",
		})
	}

	if c.Extract.Parallelism < 1 {
		errors = append(errors, ValidationError{
			Field:   "extract.parallelism",
			Message: "parallelism must be positive",
		})
	}

	return errors
}
