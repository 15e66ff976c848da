package email

import (
	"github.com/aymerick/raymond"

	"shopnotify/internal/types"
)

// Compile renders a Handlebars template source against a context and returns
// the output. It is a pure function: each call parses the source fresh, no
// shared template registry is consulted, and two calls with equal inputs
// produce equal outputs.
//
// A placeholder with no matching context key renders as an empty string.
// A structurally malformed template (unclosed block, bad expression) returns
// a configuration error.
func Compile(source string, ctx Context) (string, error) {
	out, err := raymond.Render(source, map[string]interface{}(ctx))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeConfigTemplateMalformed,
			"template failed to compile", err)
	}
	return out, nil
}
