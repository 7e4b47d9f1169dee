//go:build integration

package testdb

import (
	"net/url"
	"os"
)

// Environment variables checked for a test database URL, in order of preference.
const (
	EnvTestDatabaseURL = "TASKCAL_TEST_DB_URL"
	EnvDatabaseURL     = "TASKCAL_DATABASE_URL"
	EnvGenericURL      = "DATABASE_URL"
)

// GetTestDatabaseURL returns the first database URL found in the environment,
// or an empty string when none is set.
func GetTestDatabaseURL() string {
	for _, name := range []string{EnvTestDatabaseURL, EnvDatabaseURL, EnvGenericURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ShouldSkipDatabaseTest reports whether no database is configured.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}
