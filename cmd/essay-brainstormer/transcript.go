// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/essay-brainstormer/internal/transcript"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript",
	Short: "Inspect the session transcript log (list, show, export)",
	Long: `Transcript reads the SQLite log of brainstorming sessions written by
serve and chat. Use subcommands to list sessions, print one session's turns,
or export everything as YAML.`,
}

// --- list subcommand ---

var transcriptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged sessions, newest first",
	RunE:  runTranscriptList,
}

func runTranscriptList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOut, _ := cmd.Flags().GetBool("json")

	store, err := transcript.NewStore(cfg.Transcript)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Sessions(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	}
	return writeSessionTable(os.Stdout, sessions)
}

func writeSessionTable(w io.Writer, sessions []transcript.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions logged.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLLEGE\tSTARTED\tTURNS\tCOMPLETE")
	for _, s := range sessions {
		complete := "no"
		if s.CompletedAt != nil {
			complete = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.Profile.Name, s.Profile.CollegeName,
			s.StartedAt.Local().Format(time.DateTime), s.Turns, complete)
	}
	return tw.Flush()
}

// --- show subcommand ---

var transcriptShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the turns of one session",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscriptShow,
}

func runTranscriptShow(cmd *cobra.Command, args []string) error {
	store, err := transcript.NewStore(cfg.Transcript)
	if err != nil {
		return err
	}
	defer store.Close()

	turns, err := store.Turns(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return fmt.Errorf("no turns logged for session %s", args[0])
	}
	for _, t := range turns {
		fmt.Printf("--- %d %s (%s)\n> %s\n\n%s\n\n", t.Seq, t.Stage, t.CreatedAt.Local().Format(time.DateTime), t.Input, t.Output)
	}
	return nil
}

// --- export subcommand ---

var transcriptExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all sessions and turns as YAML",
	Long: `Export writes every logged session with its turns as YAML. With --out
the export goes to that file; with --file it goes to export.yaml in the
transcript directory; otherwise it is written to stdout.`,
	RunE: runTranscriptExport,
}

func runTranscriptExport(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	toDir, _ := cmd.Flags().GetBool("file")

	store, err := transcript.NewStore(cfg.Transcript)
	if err != nil {
		return err
	}
	defer store.Close()

	switch {
	case toDir:
		path, err := store.ExportFile(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Wrote", path)
		return nil
	case out != "":
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		if err := store.Export(cmd.Context(), f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return store.Export(cmd.Context(), os.Stdout)
	}
}

func init() {
	transcriptListCmd.Flags().Int("limit", 50, "maximum number of sessions")
	transcriptListCmd.Flags().Bool("json", false, "output as JSON")

	transcriptExportCmd.Flags().String("out", "", "write the export to this file")
	transcriptExportCmd.Flags().Bool("file", false, "write export.yaml into the transcript directory")

	transcriptCmd.AddCommand(transcriptListCmd)
	transcriptCmd.AddCommand(transcriptShowCmd)
	transcriptCmd.AddCommand(transcriptExportCmd)

	rootCmd.AddCommand(transcriptCmd)
}
