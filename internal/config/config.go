// internal/config/config.go
package config

// Config is the divedump driver's runtime configuration: which
// devices to download from and where to put the results.
type Config struct {
	Devices  []DeviceConfig `yaml:"devices"`
	LogFile  string         `yaml:"log_file"`
	DumpDir  string         `yaml:"dump_dir"`
	Parallel int            `yaml:"parallel"`
}

// DeviceConfig names one dive computer reachable over a serial port.
type DeviceConfig struct {
	ID               string `yaml:"id"`
	Port             string `yaml:"port"`
	Baud             int    `yaml:"baud"`
	Model            string `yaml:"model"`
	FingerprintStore string `yaml:"fingerprint_store"`
}
