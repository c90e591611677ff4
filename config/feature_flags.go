package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages runtime toggles for notification kinds. Operators
// can silence a noisy event class without redeploying, e.g. during a
// catalog migration that rewrites every file URL.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]bool
}

// Predefined feature flag names.
const (
	// === Notification kinds ===
	FeatureNotifyFileAdded     = "notify.file_added"
	FeatureNotifyLiveClass     = "notify.live_class"
	FeatureNotifyQuiz          = "notify.quiz"
	FeatureNotifyGeneralUpdate = "notify.general_update"
	FeatureNotifyExpiry        = "notify.expiry"

	// === Reminders ===
	FeatureRemindQuizStart = "remind.quiz_start"
	FeatureRemindQuizEnd   = "remind.quiz_end"
	FeatureRemindLiveClass = "remind.live_class"
)

// defaultFeatures lists every known flag with its default state.
var defaultFeatures = map[string]bool{
	FeatureNotifyFileAdded:     true,
	FeatureNotifyLiveClass:     true,
	FeatureNotifyQuiz:          true,
	FeatureNotifyGeneralUpdate: true,
	FeatureNotifyExpiry:        true,
	FeatureRemindQuizStart:     true,
	FeatureRemindQuizEnd:       true,
	FeatureRemindLiveClass:     true,
}

// LoadFeatureFlags builds the flag set from defaults plus FEATURE_*
// environment overrides. The env name is the flag name uppercased with
// dots replaced by underscores: notify.file_added → FEATURE_NOTIFY_FILE_ADDED.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]bool, len(defaultFeatures))}

	for name, enabled := range defaultFeatures {
		envKey := "FEATURE_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(name))
		if val := os.Getenv(envKey); val != "" {
			if parsed, err := strconv.ParseBool(val); err == nil {
				enabled = parsed
			}
		}
		ff.features[name] = enabled
	}

	return ff
}

// IsEnabled reports whether a feature is on. Unknown flags are off.
func (f *FeatureFlags) IsEnabled(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.features[name]
}

// Set toggles a feature at runtime.
func (f *FeatureFlags) Set(name string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.features[name] = enabled
}

// All returns a copy of the current flag states.
func (f *FeatureFlags) All() map[string]bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]bool, len(f.features))
	for name, enabled := range f.features {
		out[name] = enabled
	}
	return out
}
