package enums

import "fmt"

// JerseySize is the printable garment size for a customized jersey.
type JerseySize string

const (
	JerseySizeS   JerseySize = "S"
	JerseySizeM   JerseySize = "M"
	JerseySizeL   JerseySize = "L"
	JerseySizeXL  JerseySize = "XL"
	JerseySizeXXL JerseySize = "XXL"
)

var validJerseySizes = []JerseySize{
	JerseySizeS,
	JerseySizeM,
	JerseySizeL,
	JerseySizeXL,
	JerseySizeXXL,
}

// String implements fmt.Stringer.
func (s JerseySize) String() string {
	return string(s)
}

// IsValid reports whether the value is a known JerseySize.
func (s JerseySize) IsValid() bool {
	for _, candidate := range validJerseySizes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseJerseySize converts raw input into a JerseySize.
func ParseJerseySize(value string) (JerseySize, error) {
	for _, candidate := range validJerseySizes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid jersey size %q", value)
}
