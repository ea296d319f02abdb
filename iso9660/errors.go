package iso9660

import "github.com/pkg/errors"

// ErrConfiguration reports inputs that violate the builder's contract, such as
// a directory without an assigned extent or a malformed directory tree. It is
// never transient.
var ErrConfiguration = errors.New("invalid path table configuration")

func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}
