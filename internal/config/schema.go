package config

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// schemaSource constrains the shape of a config file. #Config is closed, so
// unknown keys are errors.
const schemaSource = `
#Config: {
	subject?:  string & !=""
	root?:     string & !=""
	pattern?:  string & !=""
	encoding?: string
	timeout?:  string | int & >=0 // int is whole seconds
	policy?:   "final" | "legacy"
	arg_map?:  [string]: [...string]
	color?:    "auto" | "always" | "never"
	db?:       string
}
`

// validateSchema unifies the YAML document with #Config.
func validateSchema(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if raw == nil {
		return nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatSchemaError(err)
	}
	return nil
}

// formatSchemaError joins the individual CUE errors, each prefixed with
// the offending field path.
func formatSchemaError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.Error()
		if path := strings.Join(e.Path(), "."); path != "" && !strings.HasPrefix(msg, path) {
			msg = path + ": " + msg
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
