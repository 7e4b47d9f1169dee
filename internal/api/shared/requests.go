package shared

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest validates v. Types with their own Validate method are
// trusted to use it; everything else is checked against its struct tags.
func ValidateRequest(v any) error {
	if self, ok := v.(interface{ Validate() error }); ok {
		return self.Validate()
	}
	return validate.Struct(v)
}

// QueryList collects the values of every named query parameter, in order.
// Repeated parameters and comma-separated values are both accepted; blank
// values are dropped.
func QueryList(r *http.Request, names ...string) []string {
	q := r.URL.Query()
	var out []string
	for _, name := range names {
		for _, raw := range q[name] {
			for _, v := range strings.Split(raw, ",") {
				if v = strings.TrimSpace(v); v != "" {
					out = append(out, v)
				}
			}
		}
	}
	return out
}
