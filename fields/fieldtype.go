package fields

import (
	"fmt"
	"strings"
)

// FieldType selects which set of arrays a transform, erase or deposition
// acts on.
type FieldType int

const (
	E FieldType = iota
	B
	J
	Rho
	fieldTypeCount
)

// ParseFieldType converts the names "E", "B", "J" and "rho" into a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.TrimSpace(s) {
	case "E":
		return E, nil
	case "B":
		return B, nil
	case "J":
		return J, nil
	case "rho", "Rho":
		return Rho, nil
	}
	return 0, fmt.Errorf(
		"Invalid string for fieldtype: '%s'. Must be one of [E | B | J | rho].",
		s,
	)
}

// Valid returns true if ft is one of the recognized field types.
func (ft FieldType) Valid() bool { return ft >= E && ft < fieldTypeCount }

// Check returns an error if ft is not a recognized field type.
func (ft FieldType) Check() error {
	if !ft.Valid() {
		return fmt.Errorf(
			"Invalid fieldtype %d. Must be one of [E | B | J | rho].", int(ft),
		)
	}
	return nil
}

func (ft FieldType) String() string {
	switch ft {
	case E:
		return "E"
	case B:
		return "B"
	case J:
		return "J"
	case Rho:
		return "rho"
	}
	return fmt.Sprintf("FieldType(%d)", int(ft))
}
