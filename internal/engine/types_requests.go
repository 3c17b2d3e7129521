package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// InitRequest represents a request to initialize or update a project.
// A nil or empty Name or Description leaves the stored value unchanged.
type InitRequest struct {
	Name        *string
	Description *string

	// SkipEnvironmentSetup suppresses the environment setup question.
	SkipEnvironmentSetup bool
}

// Recognized InitRequest argument keys.
const (
	ArgName                 = "name"
	ArgDescription          = "description"
	ArgSkipEnvironmentSetup = "skipEnvironmentSetup"
)

// ParseInitArgs builds an InitRequest from loosely-typed arguments.
// Unknown keys fail with ErrUnrecognizedArgument before anything else is
// examined.
func ParseInitArgs(args map[string]string) (*InitRequest, error) {
	var unknown []string
	for key := range args {
		switch key {
		case ArgName, ArgDescription, ArgSkipEnvironmentSetup:
		default:
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedArgument, strings.Join(unknown, ", "))
	}

	req := &InitRequest{}
	if v, ok := args[ArgName]; ok {
		req.Name = &v
	}
	if v, ok := args[ArgDescription]; ok {
		req.Description = &v
	}
	if v, ok := args[ArgSkipEnvironmentSetup]; ok && v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidArgument, ArgSkipEnvironmentSetup, v)
		}
		req.SkipEnvironmentSetup = skip
	}
	return req, nil
}
