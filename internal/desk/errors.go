package desk

import (
	"errors"
	"fmt"
)

var (
	ErrScanFailed                     = errors.New("desk: scan failed")
	ErrPermissionDenied               = errors.New("desk: bluetooth permission denied")
	ErrCannotFindDevice               = errors.New("desk: cannot find device")
	ErrConnectionFailed               = errors.New("desk: connection failed")
	ErrCharacteristicsDiscoveryFailed = errors.New("desk: characteristics discovery failed")
	ErrCharacteristicsNotFound        = errors.New("desk: characteristics not found")
	ErrCannotSubscribePosition        = errors.New("desk: cannot subscribe to position")
	ErrPositionNotInRange             = errors.New("desk: position not in range")
	ErrCannotReadPosition             = errors.New("desk: cannot read position")
	ErrMacAddrParseFailed             = errors.New("desk: cannot parse device address")
	ErrMoveInterrupted                = errors.New("desk: move interrupted")
)

// CharacteristicNotFoundError reports which required characteristic the
// connected device does not expose. It matches ErrCharacteristicsNotFound.
type CharacteristicNotFoundError struct {
	Which string // "Control" or "Position"
	UUID  string
}

func (e *CharacteristicNotFoundError) Error() string {
	return fmt.Sprintf("desk: characteristics not found: %s (%s)", e.Which, e.UUID)
}

func (e *CharacteristicNotFoundError) Is(target error) bool {
	return target == ErrCharacteristicsNotFound
}
