// internal/session/mode.go
package session

import "fmt"

// CompoundMode определяет, какие комиссии возвращаются в позицию при ребалансировке
type CompoundMode string

const (
	CompoundBoth      CompoundMode = "both"
	CompoundSOLOnly   CompoundMode = "sol_only"
	CompoundTokenOnly CompoundMode = "token_only"
	CompoundNone      CompoundMode = "none"
)

func ParseCompoundMode(s string) (CompoundMode, error) {
	switch m := CompoundMode(s); m {
	case CompoundBoth, CompoundSOLOnly, CompoundTokenOnly, CompoundNone:
		return m, nil
	default:
		return "", fmt.Errorf("unknown compound mode %q", s)
	}
}

func (m CompoundMode) compoundsReserve() bool {
	return m == CompoundBoth || m == CompoundSOLOnly
}

func (m CompoundMode) compoundsToken() bool {
	return m == CompoundBoth || m == CompoundTokenOnly
}

func (m CompoundMode) withoutReserve() CompoundMode {
	switch m {
	case CompoundBoth:
		return CompoundTokenOnly
	case CompoundSOLOnly:
		return CompoundNone
	}
	return m
}

func (m CompoundMode) withoutToken() CompoundMode {
	switch m {
	case CompoundBoth:
		return CompoundSOLOnly
	case CompoundTokenOnly:
		return CompoundNone
	}
	return m
}
