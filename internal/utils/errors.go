package utils

import "errors"

// BadRequestError marks a failure caused by the caller's input. Handlers map
// it to a 400 response; every other error becomes a 500.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

// BadRequest constructs a BadRequestError with the given message.
func BadRequest(message string) error {
	return &BadRequestError{Message: message}
}

// IsBadRequest reports whether err is (or wraps) a BadRequestError, and
// returns its message when it is.
func IsBadRequest(err error) (string, bool) {
	var br *BadRequestError
	if errors.As(err, &br) {
		return br.Message, true
	}
	return "", false
}
