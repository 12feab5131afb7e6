// Package testing switches the binary into test mode when blank-imported by
// a test, so main returns before touching external services.
package testing

import "os"

func init() {
	_ = os.Setenv("BOOKAPI_TEST_MODE", "1")
	if os.Getenv("JWT_SECRET") == "" {
		_ = os.Setenv("JWT_SECRET", "test-secret-test-secret-test-secret")
	}
}
