package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// emit writes v as indented JSON in --json mode, otherwise calls human.
func (a *app) emit(w io.Writer, v any, human func()) error {
	if !a.jsonMode {
		human()
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// printTable writes aligned columns, trimming trailing whitespace.
func printTable(w io.Writer, header []string, rows [][]string) {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// printRecords renders untyped rows with id first and the rest sorted.
func printRecords(w io.Writer, recs []types.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No rows.")
		return
	}
	seen := map[string]bool{}
	var cols []string
	for _, r := range recs {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Slice(cols, func(i, j int) bool {
		if (cols[i] == types.ColID) != (cols[j] == types.ColID) {
			return cols[i] == types.ColID
		}
		return cols[i] < cols[j]
	})

	rows := make([][]string, len(recs))
	for i, r := range recs {
		row := make([]string, len(cols))
		for j, c := range cols {
			if r[c] == nil {
				row[j] = "-"
			} else {
				row[j] = r.String(c)
			}
		}
		rows[i] = row
	}
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = strings.ToUpper(c)
	}
	printTable(w, header, rows)
	fmt.Fprintf(w, "Total: %d row(s)\n", len(recs))
}

func idString(id int64) string { return strconv.FormatInt(id, 10) }

func optID(id *int64) string {
	if id == nil {
		return "-"
	}
	return idString(*id)
}

// readJSONFile decodes a JSON file, or stdin when path is "-".
func readJSONFile(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return usageErrorf("parse %s: %v", path, err)
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usageErrorf("invalid id %q", s)
	}
	return id, nil
}
