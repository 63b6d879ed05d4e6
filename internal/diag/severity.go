package diag

// Severity ranks how serious a diagnostic is.
type Severity uint8

const (
	// SevInfo marks purely informational output.
	SevInfo Severity = iota
	// SevWarning marks a suspicious construct that does not block emission.
	SevWarning
	// SevError marks a fatal schema problem; the affected type is withheld.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
