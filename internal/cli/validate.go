package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldset/internal/schema"
)

// ValidationResult is the JSON payload of validate.
type ValidationResult struct {
	Valid  bool             `json:"valid"`
	Types  int              `json:"types,omitempty"`
	Fields int              `json:"fields,omitempty"`
	Error  *SchemaErrorInfo `json:"error,omitempty"`
}

// SchemaErrorInfo locates a schema compile error.
type SchemaErrorInfo struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [schema-dir]",
		Short: "Compile a schema and report problems",
		Long: `Compile the CUE schema in a directory into entity catalogs.

Checks field types, lengths, storage kinds, inheritance and duplicate
fields without running anything. The directory defaults to schema_dir
from the config.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, schemaDirArg(rootOpts, args), cmd)
		},
	}
}

func schemaDirArg(opts *RootOptions, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return opts.settings().SchemaDir
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	if dir == "" {
		_ = f.Error(ErrCodeNotFound, "no schema directory given and schema_dir is not configured", nil)
		return NewExitError(ExitCommandError, "no schema directory")
	}

	f.VerboseLog("Compiling schema in %s", dir)
	s, err := schema.LoadDir(dir)
	if err != nil {
		return outputSchemaError(f, err)
	}

	types, fields := 0, 0
	for _, c := range s.Catalogs() {
		types++
		for d := range c.Fields() {
			if d.Owner() == c.Owner() {
				fields++
			}
		}
	}
	opts.logger().Debug("schema compiled", "dir", dir, "types", types, "fields", fields)

	if f.IsJSON() {
		return f.Success(ValidationResult{Valid: true, Types: types, Fields: fields})
	}
	fmt.Fprintf(f.Writer, "✓ Schema valid: %d type(s), %d field(s)\n", types, fields)
	return nil
}

// outputSchemaError reports a load or compile failure. Compile errors are
// validation failures; anything else is a command error.
func outputSchemaError(f *OutputFormatter, err error) error {
	var ce *schema.CompileError
	if !errors.As(err, &ce) {
		_ = f.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	info := &SchemaErrorInfo{Field: ce.Field, Message: ce.Message}
	if ce.Pos.IsValid() {
		info.File = ce.Pos.Filename()
		info.Line = ce.Pos.Line()
	}

	if f.IsJSON() {
		if encErr := f.Failure(ErrCodeSchema, ce.Message, ValidationResult{Valid: false, Error: info}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintf(f.Writer, "✗ %s\n", ce.Error())
	}
	return WrapExitError(ExitFailure, "schema invalid", err)
}
