package cli

import (
	"fmt"
	"os"

	"github.com/mdwiz/mdwiz/internal/xmlnode"
	"github.com/spf13/cobra"
)

var (
	xpathText  bool
	xpathCount bool
)

// xpathCmd represents the xpath command
var xpathCmd = &cobra.Command{
	Use:   "xpath <file> <path>",
	Short: "Print the elements of a record matching a path",
	Long: `Xpath resolves a slash separated path against a metadata record and
prints every matching element.

A segment may carry a 1-based index: idinfo/keywords/theme[2]/themekey.

Example:
  mdwiz xpath metadata.xml idinfo/citation/citeinfo/title --text
  mdwiz xpath metadata.xml idinfo/taxonomy/keywtax/taxonkey --count`,
	Args: cobra.ExactArgs(2),
	RunE: runXPath,
}

func init() {
	rootCmd.AddCommand(xpathCmd)
	xpathCmd.Flags().BoolVar(&xpathText, "text", false, "print element text only")
	xpathCmd.Flags().BoolVar(&xpathCount, "count", false, "print the number of matches only")
}

func runXPath(cmd *cobra.Command, args []string) error {
	if _, err := xmlnode.ParsePath(args[1]); err != nil {
		return err
	}
	record, err := xmlnode.LoadRecord(args[0])
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}

	matches := record.Metadata().Search(args[1])
	out := cmd.OutOrStdout()
	switch {
	case xpathCount:
		_, _ = fmt.Fprintln(out, len(matches))
	case xpathText:
		for _, n := range matches {
			_, _ = fmt.Fprintln(out, n.Text)
		}
	default:
		for _, n := range matches {
			_, _ = fmt.Fprint(out, n.String())
		}
	}

	if len(matches) == 0 && !xpathCount {
		fmt.Fprintf(os.Stderr, "No elements match %s\n", args[1])
	}
	return nil
}
