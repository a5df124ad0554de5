package catalog

import "fmt"

// Validate checks layout correctness. It performs declarative
// validation only; it must not mutate l.
func Validate(l Layout) error {
	if l.Model == "" {
		return fmt.Errorf("model name is required")
	}
	if l.PacketSize <= 0 {
		return fmt.Errorf("packet_size must be positive")
	}
	if l.ProfileBegin >= l.ProfileEnd {
		return fmt.Errorf("profile_begin must be < profile_end")
	}
	if l.FingerprintSize < 0 {
		return fmt.Errorf("fingerprint_size must not be negative")
	}

	switch l.Family {
	case FamilyA:
		if l.LogbookBegin >= l.LogbookEnd {
			return fmt.Errorf("logbook_begin must be < logbook_end")
		}
		if l.LogbookEmpty >= l.LogbookBegin && l.LogbookEmpty < l.LogbookEnd {
			return fmt.Errorf("logbook_empty must lie outside [logbook_begin, logbook_end)")
		}
		if uint32(l.PointerAddress)%uint32(l.PacketSize) != 0 {
			return fmt.Errorf("pointer_address must be a multiple of packet_size")
		}
	case FamilyB:
		if l.MinRead <= 0 {
			return fmt.Errorf("min_read must be positive")
		}
		if l.MinRead > l.PacketSize {
			return fmt.Errorf("min_read must not exceed packet_size")
		}
		if l.SerialSize < 0 {
			return fmt.Errorf("serial_size must not be negative")
		}
	default:
		return fmt.Errorf("family must be %q or %q, got %q", FamilyA, FamilyB, l.Family)
	}

	return nil
}
