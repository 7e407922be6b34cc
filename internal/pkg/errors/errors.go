package errors

import "errors"

var (
	ErrInvalid       = errors.New("invalid")
	ErrConfiguration = errors.New("configuration")
	ErrGeneration    = errors.New("generation")
	ErrInternal      = errors.New("internal")
)

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsGeneration(err error) bool {
	return errors.Is(err, ErrGeneration)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}
