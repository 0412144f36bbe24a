package shortener

import (
	"fmt"
	"regexp"

	"github.com/jaevor/go-nanoid"
)

const (
	// DefaultCodeLength is the length of generated short codes.
	DefaultCodeLength = 8

	aliasMinLength = 3
	aliasMaxLength = 20
)

var aliasPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ErrInvalidAlias wraps every structural alias validation failure.
var ErrInvalidAlias = fmt.Errorf("invalid alias")

// CodeGenerator produces random URL-safe short codes. Collisions are
// possible; callers handle them against the store.
type CodeGenerator func() string

// NewCodeGenerator returns a generator producing lowercase hex codes of
// the given length.
func NewCodeGenerator(length int) (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII("0123456789abcdef", length)
	if err != nil {
		return nil, err
	}

	return CodeGenerator(gen), nil
}

// ValidateAlias checks the structural rules for a custom alias: length
// between 3 and 20 characters, letters, digits, hyphens, and underscores
// only. Uniqueness is a separate, store-authoritative check.
func ValidateAlias(alias string) error {
	if len(alias) < aliasMinLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrInvalidAlias, aliasMinLength)
	}

	if len(alias) > aliasMaxLength {
		return fmt.Errorf("%w: cannot exceed %d characters", ErrInvalidAlias, aliasMaxLength)
	}

	if !aliasPattern.MatchString(alias) {
		return fmt.Errorf("%w: can only contain letters, numbers, hyphens, and underscores", ErrInvalidAlias)
	}

	return nil
}
