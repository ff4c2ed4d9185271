package config

import (
	"os"
	"strconv"
	"sync"
)

// Environment overrides, read once per process.
const (
	envSubmitTimeout  = "JOURNEY_SUBMIT_TIMEOUT_MS"
	envHeadingTimeout = "JOURNEY_HEADING_TIMEOUT_MS"
	envBaseURL        = "JOURNEY_BASE_URL"
	envHeadless       = "JOURNEY_HEADLESS"
)

var (
	envOnce sync.Once
	envVals map[string]string
)

func readEnv() map[string]string {
	envOnce.Do(func() {
		envVals = make(map[string]string)
		for _, key := range []string{envSubmitTimeout, envHeadingTimeout, envBaseURL, envHeadless} {
			if v := os.Getenv(key); v != "" {
				envVals[key] = v
			}
		}
	})
	return envVals
}

// ApplyEnv overlays environment overrides onto the settings. The
// environment is captured on the first call and reused afterwards, so
// later mutations of the process environment have no effect. Values
// that fail to parse are ignored.
func (s *Settings) ApplyEnv() {
	env := readEnv()

	if v, ok := env[envSubmitTimeout]; ok {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			s.Timeouts.SubmitMillis = ms
		}
	}
	if v, ok := env[envHeadingTimeout]; ok {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			s.Timeouts.HeadingMillis = ms
		}
	}
	if v, ok := env[envBaseURL]; ok {
		s.BaseURL = v
	}
	if v, ok := env[envHeadless]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Browser.Headless = b
		}
	}
}

// ResetEnv re-arms the one-time environment read (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	envVals = nil
}
