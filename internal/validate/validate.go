package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ        = regexp.MustCompile(`^[A-Za-z0-9 _'\\-]{1,100}$`)
	reID       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reCategory = regexp.MustCompile(`^[A-Za-z0-9 &_-]{1,50}$`)
	// Stripe payment intents look like pi_..., but any provider token is accepted.
	rePaymentRef = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,255}$`)
)

// Sorts maps the public sort keys to ORDER BY clauses.
var Sorts = map[string]string{
	"-createdAt":  "created_at DESC",
	"createdAt":   "created_at ASC",
	"price":       "CAST(price AS REAL) ASC",
	"-price":      "CAST(price AS REAL) DESC",
	"-salesCount": "sales_count DESC",
	"title":       "LOWER(title) ASC",
}

const DefaultSort = "-createdAt"

func Email(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s, reQ.MatchString(s)
}

// Limit parses a page size, falling back to def and clamping to max.
func Limit(s string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// ID validates a simple resource identifier (product/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

func Category(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reCategory.MatchString(s)
}

func PaymentReference(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && rePaymentRef.MatchString(s)
}

// Sort returns the ORDER BY clause for key, defaulting to newest first.
func Sort(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Sorts[DefaultSort], true
	}
	clause, ok := Sorts[key]
	return clause, ok
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 100 {
		return "", false
	}
	return s, true
}

// Password enforces the admin password minimum.
func Password(s string) bool {
	return len(s) >= 6 && len(s) <= 72
}
