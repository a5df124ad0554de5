// internal/status/constants.go
package status

// Device status block layout constants.

// DeviceNameMaxChars is the maximum number of ASCII characters stored
// for a device's name in an encoded status block.
const DeviceNameMaxChars = 16

// BlockSize is the fixed width of an encoded status block: health(2) +
// last_error_code(2) + seconds_in_error(2) + device_name(DeviceNameMaxChars).
const BlockSize = 6 + DeviceNameMaxChars

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a successful download.
const HealthOK uint16 = 1

// HealthError represents a failed download.
const HealthError uint16 = 2

// HealthDisabled represents a device excluded from polling.
const HealthDisabled uint16 = 3
