package utils

import (
	"reflect"
	"testing"
	"time"
)

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		val  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"true", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"0", true, false},
		{"off", true, false},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Setenv("BH_TEST_BOOL", tt.val)
		if got := GetEnvAsBool("BH_TEST_BOOL", tt.def); got != tt.want {
			t.Errorf("GetEnvAsBool(%q, %v) = %v, want %v", tt.val, tt.def, got, tt.want)
		}
	}
}

func TestGetEnvNumbers(t *testing.T) {
	t.Setenv("BH_TEST_INT", " 42 ")
	if got := GetEnvAsInt("BH_TEST_INT", 1); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	t.Setenv("BH_TEST_INT", "forty")
	if got := GetEnvAsInt("BH_TEST_INT", 1); got != 1 {
		t.Errorf("expected fallback 1, got %d", got)
	}

	t.Setenv("BH_TEST_FLOAT", "6.67430e-11")
	if got := GetEnvAsFloat("BH_TEST_FLOAT", 1); got != 6.67430e-11 {
		t.Errorf("expected 6.67430e-11, got %g", got)
	}
	t.Setenv("BH_TEST_FLOAT", "")
	if got := GetEnvAsFloat("BH_TEST_FLOAT", 0.5); got != 0.5 {
		t.Errorf("expected fallback 0.5, got %f", got)
	}

	t.Setenv("BH_TEST_MS", "250")
	if got := GetEnvAsMillis("BH_TEST_MS", 10); got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", got)
	}
}

func TestGetEnvStrings(t *testing.T) {
	t.Setenv("BH_TEST_STR", "  ")
	if got := GetEnv("BH_TEST_STR", "enclosing"); got != "enclosing" {
		t.Errorf("expected default for blank value, got %q", got)
	}

	t.Setenv("BH_TEST_LIST", "a, b,,c ")
	if got := GetEnvAsSlice("BH_TEST_LIST", nil, ","); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected slice %v", got)
	}
	t.Setenv("BH_TEST_LIST", "")
	if got := GetEnvAsSlice("BH_TEST_LIST", []string{"x"}, ","); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("expected default slice, got %v", got)
	}
}
