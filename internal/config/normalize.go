// internal/config/normalize.go
package config

const (
	defaultBaud     = 9600
	defaultLogFile  = "divedump.log"
	defaultDumpDir  = "."
	defaultParallel = 1
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	for i := range cfg.Devices {
		d := &cfg.Devices[i]
		if d.Baud == 0 {
			d.Baud = defaultBaud
		}
	}

	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	if cfg.DumpDir == "" {
		cfg.DumpDir = defaultDumpDir
	}
	if cfg.Parallel == 0 {
		cfg.Parallel = defaultParallel
	}
}
