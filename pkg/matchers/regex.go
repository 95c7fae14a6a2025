package matchers

import (
	"regexp"
	"regexp/syntax"

	"github.com/arthur-debert/danny/pkg/constants"
	"github.com/arthur-debert/danny/pkg/errors"
)

// CompileRegex compiles a user supplied pattern with bounded length and
// program size. Go's regexp engine runs in linear time, so the bounds only
// need to cap memory.
func CompileRegex(pattern string) (*regexp.Regexp, error) {
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, invalidPattern(pattern, err, "invalid regex")
	}
	return re, nil
}

// ValidatePattern checks a pattern against the length and program size
// limits without building a matcher
func ValidatePattern(pattern string) error {
	if len(pattern) > constants.MaxRegexLength {
		return errors.Newf(errors.ErrInvalidPattern,
			"pattern length %d exceeds maximum of %d", len(pattern), constants.MaxRegexLength).
			WithDetail(errors.DetailPattern, truncate(pattern)).
			WithDetail(errors.DetailValue, len(pattern)).
			WithDetail(errors.DetailLimit, constants.MaxRegexLength)
	}

	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return invalidPattern(pattern, err, "invalid regex")
	}
	prog, err := syntax.Compile(re.Simplify())
	if err != nil {
		return invalidPattern(pattern, err, "regex too complex")
	}
	if n := len(prog.Inst); n > constants.MaxRegexProgramSize {
		return errors.Newf(errors.ErrInvalidPattern,
			"compiled regex has %d instructions, maximum is %d", n, constants.MaxRegexProgramSize).
			WithDetail(errors.DetailPattern, truncate(pattern)).
			WithDetail(errors.DetailValue, n).
			WithDetail(errors.DetailLimit, constants.MaxRegexProgramSize)
	}
	return nil
}

func invalidPattern(pattern string, err error, msg string) error {
	return errors.Wrap(err, errors.ErrInvalidPattern, msg).
		WithDetail(errors.DetailPattern, truncate(pattern))
}

func truncate(pattern string) string {
	const max = 64
	if len(pattern) <= max {
		return pattern
	}
	return pattern[:max] + "..."
}
