package runconfig

import (
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/providers/confmap"
	koanf "github.com/knadh/koanf/v2"
)

// EnvPrefix is the environment variable prefix honored by Resolve, mirroring
// the teacher's HARVX_ convention.
const EnvPrefix = "ADAPTCORE_"

// Resolve layers built-in defaults, an optional TOML file at configPath (if
// non-empty and present), and ADAPTCORE_* environment variables, highest
// precedence last. Missing configPath is silently ignored; a malformed file
// is an error.
func Resolve(configPath string) (Limits, error) {
	limits := Defaults()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			var fileLimits Limits
			if _, err := toml.DecodeFile(configPath, &fileLimits); err != nil {
				return limits, err
			}
			limits = mergeNonZero(limits, fileLimits)
		}
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(buildEnvMap(), "."), nil); err != nil {
		return limits, err
	}

	if v := k.String("log_format"); v != "" {
		limits.LogFormat = v
	}

	slog.Debug("resolved adapter limits", "logFormat", limits.LogFormat)

	return limits, nil
}

// buildEnvMap reads ADAPTCORE_* environment variables into a flat map
// suitable for a koanf confmap provider. Unset variables are omitted.
func buildEnvMap() map[string]any {
	m := make(map[string]any)
	for _, name := range []string{"LOG_FORMAT"} {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			m[toKey(name)] = v
		}
	}
	return m
}

func toKey(envSuffix string) string {
	out := make([]byte, len(envSuffix))
	for i, c := range []byte(envSuffix) {
		if c >= 'A' && c <= 'Z' {
			out[i] = c + ('a' - 'A')
		} else {
			out[i] = c
		}
	}
	return string(out)
}

func mergeNonZero(base, override Limits) Limits {
	if override.LogFormat != "" {
		base.LogFormat = override.LogFormat
	}
	return base
}
