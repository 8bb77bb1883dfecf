package output

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"deployctl/internal/envfile"
)

// Printer controls output format.
// When JSON is true, PrintJSON will be used; otherwise tabular output.
type Printer struct {
	JSON bool
}

func (p Printer) JSONEnabled() bool { return p.JSON }

func (p Printer) PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p Printer) Table(header []string, rows [][]string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for i, h := range header {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, h)
	}
	fmt.Fprint(w, "\n")
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprint(w, "\n")
	}
	return w.Flush()
}

func (p Printer) PrintOrTable(header []string, rows [][]string, jsonValue interface{}) error {
	if p.JSON {
		return p.PrintJSON(jsonValue)
	}
	return p.Table(header, rows)
}

// PrintEnv prints env sorted by key. Secret values are masked unless reveal is set.
func (p Printer) PrintEnv(env envfile.Env, reveal bool) error {
	shown := envfile.Env{}
	rows := make([][]string, 0, len(env))
	for _, k := range envfile.Keys(env) {
		v := env[k]
		if !reveal && envfile.IsSecret(k) {
			v = envfile.Mask(v)
		}
		shown[k] = v
		rows = append(rows, []string{k, v})
	}
	return p.PrintOrTable([]string{"KEY", "VALUE"}, rows, shown)
}

func (p Printer) PrintError(err error) {
	if p.JSON {
		_ = p.PrintJSON(map[string]interface{}{"error": err.Error()})
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err.Error())
}
