package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"

	"github.com/m365ops/m365ctl/internal/export"
)

const (
	tableFormat = "table"
	jsonFormat  = "json"
	csvFormat   = "csv"
	xlsxFormat  = "xlsx"
)

var legalOutputTypes = []string{tableFormat, jsonFormat, csvFormat, xlsxFormat}

func validateKind(kind string, legal []string) error {
	if !funk.Contains(legal, kind) {
		return fmt.Errorf("invalid resource kind: %s (want one of %s)", kind, strings.Join(legal, ", "))
	}
	return nil
}

// outputOptions is shared by every listing command.
type outputOptions struct {
	Output string
	File   string
}

func (o *outputOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Output, "output", "o", tableFormat, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
	fs.StringVarP(&o.File, "file", "f", o.File, "Output file for csv/xlsx formats.")
}

func (o *outputOptions) Validate() error {
	if !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	if (o.Output == csvFormat || o.Output == xlsxFormat) && o.File == "" {
		return fmt.Errorf("--file is required with -o %s", o.Output)
	}
	return nil
}

// render writes records in the selected format. records is the structured
// form used for json; table is the flat form used everywhere else.
func (o *outputOptions) render(records any, sheet string, table export.Table) error {
	switch o.Output {
	case jsonFormat:
		return export.WriteJSON(os.Stdout, records)
	case csvFormat:
		f, err := os.Create(o.File)
		if err != nil {
			return err
		}
		if err := export.WriteCSV(f, table); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case xlsxFormat:
		return export.WriteXLSX(o.File, sheet, table)
	default:
		return export.WriteTab(os.Stdout, table)
	}
}
