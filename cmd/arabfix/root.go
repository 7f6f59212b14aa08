package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stackvity/arabfix/internal/cli"
	"github.com/stackvity/arabfix/internal/cli/config"
	"github.com/stackvity/arabfix/pkg/fixer"
	"golang.org/x/term"
)

var (
	// These are set during build time using -ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootFlags holds the flags that are read directly rather than through config.
type rootFlags struct {
	cfgFile     string
	profileName string
	verbose     bool
	noColor     bool
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag state
// out of package globals.
func newRootCmd() *cobra.Command {
	rf := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "arabfix",
		Short: "Repairs mis-encoded Arabic text in HTML files.",
		Long: `arabfix re-saves HTML files containing Arabic text as UTF-8.

Two pipelines are available:
  probe  guesses the legacy encoding of each file (windows-1256, iso-8859-6, ...)
         by looking for known marker text, then re-saves it as UTF-8.
  patch  decodes leniently, replaces known corruption signatures, strips one
         leading byte-order mark and normalizes line endings to CRLF.

Files are overwritten in place. No backup is made.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.SetVersionTemplate(`{{.Name}} version {{.Version}}` + "\n")

	// Persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rf.cfgFile, "config", "", "Configuration file path (default is search ., $HOME/.config/arabfix/)")
	pf.StringVar(&rf.profileName, "profile", "", "Name of configuration profile to use")
	pf.BoolVarP(&rf.verbose, "verbose", "v", false, "Enable verbose (debug) logging output")
	pf.BoolVar(&rf.noColor, "no-color", false, "Disable colored status output")
	pf.StringP("dir", "d", fixer.DefaultDir, "Directory containing the files to repair")
	pf.StringP("pattern", "p", fixer.DefaultPattern, "Glob pattern selecting files inside --dir (not recursive)")
	pf.Bool("dry-run", fixer.DefaultDryRun, "Decode and report without writing any file")
	pf.Bool("verify", fixer.DefaultVerify, "Re-read each written file and check it is the expected UTF-8")
	pf.Bool("skip-binary", fixer.DefaultSkipBinary, "Leave files that look binary untouched")
	pf.String("on-error", string(fixer.DefaultOnErrorMode), `Behavior when a file fails ("continue" or "stop")`)
	pf.String("output-format", string(fixer.DefaultOutputFormat), `Final report format ("text", "json")`)

	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Detect the legacy encoding from marker text and re-save as UTF-8.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, rf, fixer.PipelineProbe)
		},
	}
	probeCmd.Flags().StringSlice("encodings", fixer.DefaultProbeEncodings(), "Candidate encodings, tried in order")
	probeCmd.Flags().StringSlice("markers", fixer.DefaultMarkers(), "Text whose presence marks a plausible decode")
	probeCmd.Flags().String("newline", string(fixer.DefaultProbeNewline), `Line endings on write ("keep", "crlf", "lf")`)

	patchCmd := &cobra.Command{
		Use:   "patch",
		Short: "Replace known corruption signatures and re-save as UTF-8 with CRLF line endings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, rf, fixer.PipelinePatch)
		},
	}
	addTableFlag(patchCmd)
	patchCmd.Flags().StringSlice("encodings", fixer.DefaultPatchEncodings(), "Encodings for lenient decoding; the first one is used")
	patchCmd.Flags().String("newline", string(fixer.DefaultPatchNewline), `Line endings on write ("keep", "crlf", "lf")`)

	tableCmd := &cobra.Command{
		Use:   "table",
		Short: "Print the signature table the patch pipeline would apply, as YAML.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTable(cmd, rf)
		},
	}
	addTableFlag(tableCmd)

	rootCmd.AddCommand(probeCmd, patchCmd, tableCmd)
	return rootCmd
}

func addTableFlag(cmd *cobra.Command) {
	cmd.Flags().String("table", "", "YAML file with signature rules (default is the built-in table)")
}

func runPipeline(cmd *cobra.Command, rf *rootFlags, pipeline fixer.Pipeline) error {
	// Create a context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, logger, err := config.LoadAndValidate(rf.cfgFile, rf.profileName, version, rf.verbose, pipeline, cmd.Flags())
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	return cli.Run(ctx, opts, logger, stdout, cmd.ErrOrStderr(), styledOutput(stdout, rf.noColor))
}

func printTable(cmd *cobra.Command, rf *rootFlags) error {
	opts, _, err := config.LoadAndValidate(rf.cfgFile, rf.profileName, version, rf.verbose, fixer.PipelinePatch, cmd.Flags())
	if err != nil {
		return err
	}
	processor, err := fixer.NewFileProcessor(&opts, opts.Logger)
	if err != nil {
		return err
	}
	data, err := processor.Table().Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// styledOutput enables colors only when writing to a terminal.
func styledOutput(out io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
