package risk

import "github.com/pkg/errors"

func errInvalidLimits(msg string) error {
	return errors.New("risk: invalid limits: " + msg)
}
