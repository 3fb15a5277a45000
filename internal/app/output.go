package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"horse.fit/smartlingzd/internal/transfer"
)

func writeStatusTable(w io.Writer, rows []transfer.StatusRow) error {
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		state := "in progress"
		switch {
		case row.Err != nil:
			state = "error: " + row.Err.Error()
		case row.Complete():
			state = "complete"
		}
		table = append(table, []string{
			string(row.ItemType),
			strconv.FormatInt(row.ID, 10),
			row.ZendeskLocale,
			row.SmartlingLocale,
			fmt.Sprintf("%d/%d", row.Completed, row.Strings),
			strconv.Itoa(row.Words),
			state,
		})
	}
	return writeTable(w, []string{"TYPE", "ID", "ZD_LOCALE", "SL_LOCALE", "STRINGS", "WORDS", "STATE"}, table)
}

func writeTable(w io.Writer, headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return writer.Flush()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "smartlingzd: sync Zendesk Help Center content with Smartling")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  smartlingzd (-t | -r | -u | -i) [-a ids|all] [-s ids|all] [-c ids|all] [-l locales|all] [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Directions:")
	fmt.Fprintln(w, "  -t, --translate             Upload source items from Zendesk to Smartling")
	fmt.Fprintln(w, "  -r, --retrievetranslations  Download translations from Smartling into Zendesk")
	fmt.Fprintln(w, "  -u, --status                Show translation progress of explicit items")
	fmt.Fprintln(w, "  -i, --importtranslations    Re-import downloaded translation files into Smartling")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Selection:")
	fmt.Fprintln(w, "  -a, --articles      Article IDs (comma-separated) or all")
	fmt.Fprintln(w, "  -s, --sections      Section IDs (comma-separated) or all")
	fmt.Fprintln(w, "  -c, --categories    Category IDs (comma-separated) or all")
	fmt.Fprintln(w, "  -l, --locales       Zendesk locales (comma-separated) or all; not allowed with -t")
	fmt.Fprintln(w, "  -y, --retrievaltype published, pending or pseudo (default published)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Other flags:")
	fmt.Fprintln(w, "  -g, --loglevel       debug, info, warning, error or critical (default info)")
	fmt.Fprintln(w, "  --config             Configuration file (default smartlingzd.cfg)")
	fmt.Fprintln(w, "  --transfer-config    Article include/exclude file (default translate.cfg)")
	fmt.Fprintln(w, "  --env                .env file with credential overrides (default .env)")
	fmt.Fprintln(w, "  --timeout            Overall run timeout (default 30m)")
	fmt.Fprintln(w, "  --dry-run            Report what would be transferred without writing anywhere")
	fmt.Fprintln(w, "  --verify-language    Skip translations not detected as the target language")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  smartlingzd -t -a 901922090,901922091 -c all")
	fmt.Fprintln(w, "  smartlingzd -r -a all -l fr,de")
	fmt.Fprintln(w, "  smartlingzd -r -a 901922090 -l all -y pending")
}
