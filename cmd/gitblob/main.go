// Command gitblob inspects blobs and blame of a local git repository.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/dustin/go-humanize"
	"github.com/imjasonh/gitblob/internal/blame"
	"github.com/imjasonh/gitblob/internal/gitcmd"
	"github.com/imjasonh/gitblob/internal/repo"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	repoPath  string
	gitBinary string
	timeout   time.Duration
}

func (f *rootFlags) open(ctx context.Context) (*repo.Repository, error) {
	return repo.New(ctx, f.repoPath, repo.WithExecOptions(
		gitcmd.WithBinary(f.gitBinary),
		gitcmd.WithTimeout(f.timeout),
	))
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:          "gitblob",
		Short:        "Inspect blobs and blame in a git repository",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.repoPath, "repo", ".", "path to the git repository")
	cmd.PersistentFlags().StringVar(&flags.gitBinary, "git", "git", "git executable")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "timeout for each git invocation")

	cmd.AddCommand(
		newBlameCommand(flags),
		newShowCommand(flags),
		newInfoCommand(flags),
	)
	return cmd
}

func newBlameCommand(flags *rootFlags) *cobra.Command {
	var hunks bool
	cmd := &cobra.Command{
		Use:   "blame <rev> <path>",
		Short: "Show the commit that last changed each line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := r.Blame(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if hunks {
				return writeHunks(cmd.OutOrStdout(), blame.Hunks(entries))
			}
			return writeEntries(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().BoolVar(&hunks, "hunks", false, "group consecutive lines from the same commit")
	return cmd
}

func writeEntries(w io.Writer, entries []blame.Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%.8s (%s %s %4d) %s\n",
			e.Commit.ID,
			e.Commit.Author.Name,
			e.Commit.AuthorDate.Format("2006-01-02"),
			e.FinalLine,
			e.Text,
		); err != nil {
			return err
		}
	}
	return nil
}

func writeHunks(w io.Writer, hunks []blame.Hunk) error {
	for _, h := range hunks {
		end := h.StartLine + len(h.Lines) - 1
		if _, err := fmt.Fprintf(w, "%.8s %d-%d %s <%s> %s\n\t%s\n",
			h.Commit.ID,
			h.StartLine, end,
			h.Commit.Author.Name,
			h.Commit.Author.Email,
			humanize.Time(h.Commit.AuthorDate),
			h.Commit.Message,
		); err != nil {
			return err
		}
	}
	return nil
}

func newShowCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <blob-id>",
		Short: "Print the content of a blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			content, err := r.Blob(args[0]).Content(cmd.Context())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(content)
			return err
		},
	}
}

func newInfoCommand(flags *rootFlags) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "info <rev> <path>",
		Short: "Describe the blob at a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := flags.open(ctx)
			if err != nil {
				return err
			}
			b, err := r.BlobAt(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			size, err := b.Size(ctx)
			if err != nil {
				return err
			}
			if verify {
				if err := b.Verify(ctx); err != nil {
					return err
				}
			}

			lines := []string{
				"id:        " + b.ID,
				"mode:      " + b.Mode,
				"name:      " + b.Name,
				"basename:  " + b.Basename(),
				"mime-type: " + b.MimeType(),
				fmt.Sprintf("size:      %s (%d bytes)", humanize.IBytes(uint64(size)), size),
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return err
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check the content hashes to the blob id")
	return cmd
}
