package httpapi

import (
	"reflect"
	"testing"
	"time"
)

func TestConfigValidateFillsDefaults(test *testing.T) {
	test.Parallel()
	cfg := Config{}
	if err := cfg.Validate(); err != nil {
		test.Fatalf("validate: %v", err)
	}
	if cfg.ListenAddr != defaultListenAddr {
		test.Fatalf(errorMismatchMessage, defaultListenAddr, cfg.ListenAddr)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{defaultAllowedOrigin}) {
		test.Fatalf(errorMismatchMessage, defaultAllowedOrigin, cfg.AllowedOrigins)
	}
	if cfg.ShutdownTimeout != 5*time.Second || cfg.MaxImportBytes != defaultMaxImportBytes {
		test.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AuthEnabled() {
		test.Fatalf("expected auth disabled without a signing key")
	}
}

func TestConfigValidateRejectsIssuerWithoutKey(test *testing.T) {
	test.Parallel()
	cfg := Config{AuthIssuer: "bookd"}
	if err := cfg.Validate(); err == nil {
		test.Fatalf("expected error for issuer without signing key")
	}
}

func TestParseAllowedOrigins(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		raw      string
		expected []string
	}{
		{raw: "", expected: []string{}},
		{raw: "  ", expected: []string{}},
		{raw: "http://a.test", expected: []string{"http://a.test"}},
		{raw: "http://a.test, ,http://b.test ", expected: []string{"http://a.test", "http://b.test"}},
	}
	for _, testCase := range testCases {
		if actual := ParseAllowedOrigins(testCase.raw); !reflect.DeepEqual(actual, testCase.expected) {
			test.Fatalf("%q: "+errorMismatchMessage, testCase.raw, testCase.expected, actual)
		}
	}
}
