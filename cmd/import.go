package main

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrichment/internal/model"
)

var importCSVPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from a CSV file",
	Long:  "Bulk-inserts leads from a CSV file with a header row. Recognized columns: first_name, last_name, company, title, website, linkedin_url, email, phone.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("import"); err != nil {
			return err
		}

		f, err := os.Open(importCSVPath)
		if err != nil {
			return eris.Wrapf(err, "open csv %s", importCSVPath)
		}
		defer f.Close()

		leads, err := readLeadsCSV(f)
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			return eris.Errorf("no lead rows in %s", importCSVPath)
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		created, err := st.CreateLeads(ctx, leads)
		if err != nil {
			return eris.Wrap(err, "import leads")
		}

		zap.L().Info("import complete",
			zap.Int("created", created),
			zap.String("csv", importCSVPath),
		)
		return nil
	},
}

// readLeadsCSV parses header-mapped lead rows. Unknown columns are ignored;
// rows with every recognized column empty are skipped.
func readLeadsCSV(r io.Reader) ([]*model.Lead, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "read csv header")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var leads []*model.Lead
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "read csv row")
		}

		lead := &model.Lead{
			FirstName:   field(row, "first_name"),
			LastName:    field(row, "last_name"),
			Company:     field(row, "company"),
			Title:       field(row, "title"),
			Website:     field(row, "website"),
			LinkedInURL: field(row, "linkedin_url"),
			Email:       field(row, "email"),
			Phone:       field(row, "phone"),
		}
		if lead.FirstName == "" && lead.LastName == "" && lead.Company == "" &&
			lead.Title == "" && lead.Website == "" && lead.LinkedInURL == "" &&
			lead.Email == "" && lead.Phone == "" {
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file (required)")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
