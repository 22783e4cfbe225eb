// Package validate holds the synchronous form checks run before a request
// is issued. A failed check means the request is never sent.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRe   = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	mobileRe  = regexp.MustCompile(`^[0-9]{10}$`)
	pincodeRe = regexp.MustCompile(`^[0-9]{6}$`)
	otpRe     = regexp.MustCompile(`^(?:[0-9]{4}|[0-9]{6})$`)
	gstinRe   = regexp.MustCompile(`^[0-9A-Z]{15}$`)
)

// ValidationError reports a single field that failed a check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Check is one field check. It returns nil when the value is acceptable.
type Check func() error

// All runs checks in order and returns the first failure.
func All(checks ...Check) error {
	for _, c := range checks {
		if err := c(); err != nil {
			return err
		}
	}
	return nil
}

// Message extracts the human readable reason from err, or "" if err is not
// a *ValidationError.
func Message(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

func Required(field, value string) Check {
	return func() error {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Reason: "Please enter " + label(field)}
		}
		return nil
	}
}

func Email(field, value string) Check {
	return pattern(field, value, emailRe, "Please enter a valid email")
}

func Mobile(field, value string) Check {
	return pattern(field, value, mobileRe, "Please enter a valid 10 digit mobile number")
}

func Pincode(field, value string) Check {
	return pattern(field, value, pincodeRe, "Please enter a valid 6 digit pincode")
}

func OTP(field, value string) Check {
	return pattern(field, value, otpRe, "Please enter a valid OTP")
}

func GSTIN(field, value string) Check {
	return pattern(field, strings.ToUpper(value), gstinRe, "Please enter a valid 15 character GST number")
}

// Optional skips c when value is blank.
func Optional(value string, c Check) Check {
	return func() error {
		if strings.TrimSpace(value) == "" {
			return nil
		}
		return c()
	}
}

func pattern(field, value string, re *regexp.Regexp, reason string) Check {
	return func() error {
		if err := Required(field, value)(); err != nil {
			return err
		}
		if !re.MatchString(strings.TrimSpace(value)) {
			return &ValidationError{Field: field, Reason: reason}
		}
		return nil
	}
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
