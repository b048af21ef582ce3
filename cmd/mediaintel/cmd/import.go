package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/navigator1103/MediaIntel-sub006/internal/ingest"
	"github.com/navigator1103/MediaIntel-sub006/pkg/session"
	"github.com/navigator1103/MediaIntel-sub006/pkg/validate"
)

var (
	importKind         string
	importBusinessUnit string
)

// importCmd groups the import session subcommands.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Manage import sessions",
	Long: `Import drives a spend file through its session lifecycle: upload the
file, validate its rows against the master data, optionally mark it
reviewed, and commit it. Committing auto-creates unknown ranges and
campaigns as pending review and swaps in the updated master snapshot
atomically.`,
}

var importUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a spend file and create a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportUpload,
}

var importValidateCmd = &cobra.Command{
	Use:   "validate <session-id>",
	Short: "Validate a session's rows against the master data",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportValidate,
}

var importReviewCmd = &cobra.Command{
	Use:   "review <session-id>",
	Short: "Mark a validated session as reviewed",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportReview,
}

var importCommitCmd = &cobra.Command{
	Use:   "commit <session-id>",
	Short: "Commit a session into the master data",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportCommit,
}

var importStatusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show a session's state and progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportStatus,
}

var importListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all import sessions",
	Args:  cobra.NoArgs,
	RunE:  runImportList,
}

func init() {
	importUploadCmd.Flags().StringVar(&importKind, "kind", string(session.KindMediaSpend),
		"upload kind: media_spend or competitor")
	importUploadCmd.Flags().StringVar(&importBusinessUnit, "business-unit", "",
		"business unit the file belongs to (defaults to MEDIAINTEL_BUSINESS_UNIT)")

	importCmd.AddCommand(importUploadCmd)
	importCmd.AddCommand(importValidateCmd)
	importCmd.AddCommand(importReviewCmd)
	importCmd.AddCommand(importCommitCmd)
	importCmd.AddCommand(importStatusCmd)
	importCmd.AddCommand(importListCmd)
	rootCmd.AddCommand(importCmd)
}

func runImportUpload(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	businessUnit := importBusinessUnit
	if businessUnit == "" {
		businessUnit = rt.cfg.BusinessUnit
	}

	records, err := ingest.ReadFile(args[0])
	if err != nil {
		return err
	}

	s, err := rt.manager.Upload(cmd.Context(), filepath.Base(args[0]),
		session.Kind(importKind), businessUnit, records)
	if err != nil {
		return err
	}

	fmt.Printf("session %s created: %d rows from %s\n", s.ID, len(s.Records), s.FileName)
	fmt.Printf("next: mediaintel import validate %s\n", s.ID)
	return nil
}

func runImportValidate(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	s, err := rt.manager.Validate(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	printIssues(s.Issues)
	if s.CanImport {
		fmt.Printf("session %s is ready to commit\n", s.ID)
	} else {
		fmt.Printf("session %s has %d blocking issue(s); fix the master data or the file and re-validate\n",
			s.ID, len(s.BlockingIssues()))
	}
	return nil
}

func runImportReview(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	s, err := rt.manager.MarkReviewed(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("session %s marked reviewed\n", s.ID)
	return nil
}

func runImportCommit(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	actor := os.Getenv("USER")
	if actor == "" {
		actor = "mediaintel"
	}

	report, err := rt.manager.Commit(cmd.Context(), args[0], actor)
	if err != nil {
		return err
	}
	if err := rt.saveMaster(); err != nil {
		return err
	}

	fmt.Printf("imported %d of %d rows", report.Imported, report.Total)
	if report.Skipped > 0 {
		fmt.Printf(" (%d skipped)", report.Skipped)
	}
	fmt.Println()
	for _, rowErr := range report.Errors {
		fmt.Printf("  row %d: %s\n", rowErr.Row, rowErr.Reason)
	}
	return nil
}

func runImportStatus(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	s, err := rt.manager.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("session:       %s\n", s.ID)
	fmt.Printf("file:          %s (%s, %s)\n", s.FileName, s.Kind, s.BusinessUnit)
	fmt.Printf("status:        %s\n", s.Status)
	fmt.Printf("rows:          %d\n", len(s.Records))
	fmt.Printf("can import:    %v\n", s.CanImport)
	if s.Progress.Processed > 0 {
		fmt.Printf("progress:      %d/%d (imported %d, skipped %d)\n",
			s.Progress.Processed, s.Progress.Total, s.Progress.Imported, s.Progress.Skipped)
	}
	if s.Error != "" {
		fmt.Printf("error:         %s\n", s.Error)
	}
	return nil
}

func runImportList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	sessions, err := rt.manager.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tKIND\tSTATUS\tROWS\tCREATED")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.FileName, s.Kind, s.Status, len(s.Records),
			s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func printIssues(issues []validate.Issue) {
	if len(issues) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROW\tCOLUMN\tSEVERITY\tRULE\tMESSAGE")
	for _, issue := range issues {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			issue.RowIndex+1, issue.Column, issue.Severity, issue.Rule, issue.Message)
	}
	w.Flush()
}
