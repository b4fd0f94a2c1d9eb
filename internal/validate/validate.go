package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"neurocart/internal/domain"
)

var (
	reQ        = regexp.MustCompile(`^[A-Za-z0-9 _'\\-]{1,50}$`)
	reID       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9@.+_-]{3,150}$`)
	reCardExp  = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	reCode     = regexp.MustCompile(`^[A-Za-z0-9]{1,32}$`)
)

// Q validates a search query: trims, enforces allowed characters and max length.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// ID validates a resource identifier taken from a path.
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// CouponCode normalizes a code to upper case.
func CouponCode(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reCode.MatchString(s)
}

// Password enforces length and character classes for new accounts.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 72 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
			hasLetter = true
		case '0' <= r && r <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// New returns a validator that reports json field names and knows the store's custom tags:
// username, password, cardexp, category, money, status.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validatorv10.FieldLevel) bool {
		return reUsername.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validatorv10.FieldLevel) bool {
		return Password(fl.Field().String())
	})
	_ = v.RegisterValidation("cardexp", func(fl validatorv10.FieldLevel) bool {
		return reCardExp.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("category", func(fl validatorv10.FieldLevel) bool {
		return domain.Category(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("status", func(fl validatorv10.FieldLevel) bool {
		return domain.OrderStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("money", func(fl validatorv10.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive() && d.Exponent() >= -2
	})
	return v
}

// Fields flattens validator errors into json-field → failed-tag.
func Fields(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fieldPath(fe.Namespace())] = fe.Tag()
		}
		return out
	}
	out["error"] = err.Error()
	return out
}

// fieldPath drops the root struct name: "CheckoutRequest.items[0].quantity" → "items[0].quantity".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
