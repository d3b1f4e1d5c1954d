package validation

import (
	"errors"
	"fmt"
)

const (
	MP4ContentType       = "video/mp4"
	MaxFileSize    int64 = 100 * 1024 * 1024

	WrongFormatMessage = "Please upload an MP4 video file"
	TooLargeMessage    = "File size should be less than 100MB"
)

type Kind int

const (
	WrongFormat Kind = iota + 1
	TooLarge
)

func (k Kind) String() string {
	switch k {
	case WrongFormat:
		return "wrong_format"
	case TooLarge:
		return "too_large"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a rejected candidate file. Message is shown to the user as is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validate accepts only MP4 files of at most MaxFileSize bytes. The type is
// checked first, so a non-MP4 file is WrongFormat whatever its size.
func Validate(contentType string, size int64) error {
	if contentType != MP4ContentType {
		return &Error{Kind: WrongFormat, Message: WrongFormatMessage}
	}
	if size > MaxFileSize {
		return &Error{Kind: TooLarge, Message: TooLargeMessage}
	}
	return nil
}

// KindOf reports the validation kind of err, or 0 if err is not a validation error.
func KindOf(err error) Kind {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return 0
}
