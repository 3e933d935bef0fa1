package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/schema"
)

// TypeDescription is the JSON form of one catalog.
type TypeDescription struct {
	Type    string             `json:"type"`
	Extends string             `json:"extends,omitempty"`
	Slots   int                `json:"slots"`
	Locked  bool               `json:"locked"`
	Fields  []FieldDescription `json:"fields"`
}

// FieldDescription is the JSON form of one descriptor.
type FieldDescription struct {
	Name     string `json:"name"`
	Owner    string `json:"owner"`
	Type     string `json:"type"`
	Slot     *int   `json:"slot,omitempty"`
	Length   *int   `json:"length,omitempty"`
	Storage  string `json:"storage"`
	Equality bool   `json:"equality"`
	Secured  bool   `json:"secured"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <schema-dir> [type...]",
		Short: "List the fields of each declared type",
		Long: `Compile a schema and print every type's field catalog, inherited
fields first, with the slot each versioned field occupies.

With no type arguments every declared type is described.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args[0], args[1:], cmd)
		},
	}
}

func runDescribe(opts *RootOptions, dir string, types []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	s, err := schema.LoadDir(dir)
	if err != nil {
		return outputSchemaError(f, err)
	}

	var catalogs []*catalog.Catalog
	if len(types) == 0 {
		catalogs = s.Catalogs()
	} else {
		for _, name := range types {
			c, ok := s.Lookup(catalog.TypeID(name))
			if !ok {
				_ = f.Error(ErrCodeUnknownType, fmt.Sprintf("type %q not declared in %s", name, dir), nil)
				return NewExitError(ExitCommandError, "unknown type "+name)
			}
			catalogs = append(catalogs, c)
		}
	}

	out := make([]TypeDescription, 0, len(catalogs))
	for _, c := range catalogs {
		out = append(out, describeCatalog(c))
	}

	if f.IsJSON() {
		return f.Success(out)
	}
	for i, td := range out {
		if i > 0 {
			fmt.Fprintln(f.Writer)
		}
		writeTypeText(f, td)
	}
	return nil
}

func describeCatalog(c *catalog.Catalog) TypeDescription {
	td := TypeDescription{
		Type:   string(c.Owner()),
		Slots:  c.VersionedCount(),
		Locked: c.Locked(),
		Fields: []FieldDescription{},
	}
	if p := c.Parent(); p != nil {
		td.Extends = string(p.Owner())
	}

	for d := range c.Fields() {
		fd := FieldDescription{
			Name:     string(d.ID()),
			Owner:    string(d.Owner()),
			Type:     d.Type().String(),
			Storage:  d.Storage().String(),
			Equality: d.IsEquality(),
			Secured:  d.IsSecured(),
		}
		if slot, ok := d.Slot(); ok {
			fd.Slot = &slot
		}
		if n, ok := d.MaxLength(); ok {
			fd.Length = &n
		}
		td.Fields = append(td.Fields, fd)
	}
	return td
}

func writeTypeText(f *OutputFormatter, td TypeDescription) {
	header := td.Type
	if td.Extends != "" {
		header += " extends " + td.Extends
	}
	fmt.Fprintf(f.Writer, "%s (%d slots)\n", header, td.Slots)

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  SLOT\tFIELD\tTYPE\tLENGTH\tSTORAGE\tFLAGS")
	for _, fd := range td.Fields {
		slot, length := "-", "-"
		if fd.Slot != nil {
			slot = strconv.Itoa(*fd.Slot)
		}
		if fd.Length != nil {
			length = strconv.Itoa(*fd.Length)
		}
		name := fd.Name
		if fd.Owner != td.Type {
			name += " (" + fd.Owner + ")"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n", slot, name, fd.Type, length, fd.Storage, fieldFlags(fd))
	}
	_ = tw.Flush()
}

func fieldFlags(fd FieldDescription) string {
	var flags []string
	if !fd.Equality {
		flags = append(flags, "no-equality")
	}
	if fd.Secured {
		flags = append(flags, "secured")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}
