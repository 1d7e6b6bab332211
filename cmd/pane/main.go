package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"slide-suggest/internal/app"
	"slide-suggest/internal/config"
	"slide-suggest/internal/extract"
	"slide-suggest/internal/host"
	"slide-suggest/internal/host/pptx"
	"slide-suggest/internal/logger"
	"slide-suggest/internal/pane"
	"slide-suggest/internal/suggest"
)

// options carries the flags shared by every subcommand.
type options struct {
	cfg      config.Config
	log      *slog.Logger
	slide    int
	strategy string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "pane",
		Short: "Slide suggestions for PowerPoint presentations",
		Long: `pane reads the text and pictures of a slide in a .pptx file and asks the
suggestion service how to improve it.

Examples:
  pane suggest deck.pptx --slide 3
  pane suggest deck.pptx --mode citations --verbose
  pane extract deck.pptx --all
  pane probe deck.pptx
  pane feedback 1f0c... --rating down --comment "too vague"`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.LoadEnv(); err != nil {
				return err
			}
			opts.cfg = config.Load()
			if cmd.Flags().Changed("backend") {
				opts.cfg.BackendURL, _ = cmd.Flags().GetString("backend")
			}
			opts.log = logger.NewWriter(errOut, opts.cfg.LogLevel)
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().IntVarP(&opts.slide, "slide", "s", 1, "Slide to read (1-based); stands in for the selected slide")
	root.PersistentFlags().StringVar(&opts.strategy, "strategy", "nested", "Image strategy: nested, top-level or slide")
	root.PersistentFlags().String("backend", "", "Suggestion service base URL (overrides BACKEND_URL)")

	root.AddCommand(newSuggestCmd(opts), newExtractCmd(opts), newProbeCmd(opts), newFeedbackCmd(opts))
	return root
}

func newSuggestCmd(opts *options) *cobra.Command {
	var mode string
	var verbose bool
	cmd := &cobra.Command{
		Use:   "suggest <file.pptx>",
		Short: "Extract the slide and print a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := extract.ParseStrategy(opts.strategy)
			if err != nil {
				return err
			}
			doc, err := pptx.Open(args[0], pptx.WithSelectedSlide(opts.slide))
			if err != nil {
				return err
			}
			defer doc.Close()

			view := pane.NewTerminalView(cmd.OutOrStdout(), verbose)
			client := suggest.NewHTTPClient(opts.cfg.BackendURL, opts.cfg.ClientTimeout(), opts.log)
			ctrl := pane.NewController(extract.New(doc, strategy, opts.log), client, view, mode, opts.log)

			res, err := ctrl.Click(cmd.Context())
			if errors.Is(err, pane.ErrNothingFound) {
				return nil
			}
			if err != nil {
				return errors.New(pane.UserMessage(err))
			}
			if res.ID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nSuggestion id: %s\n", res.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Suggestion mode: improve (default) or citations")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the extracted text before the suggestion")
	return cmd
}

// slideReport is one slide of extract's JSON output.
type slideReport struct {
	Slide      int      `json:"slide_number"`
	Texts      []string `json:"texts"`
	ImageCount int      `json:"image_count"`
	Images     []string `json:"images,omitempty"`
}

func newExtractCmd(opts *options) *cobra.Command {
	var all, withImages bool
	cmd := &cobra.Command{
		Use:   "extract <file.pptx>",
		Short: "Print the extracted slide content as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := extract.ParseStrategy(opts.strategy)
			if err != nil {
				return err
			}
			doc, err := pptx.Open(args[0], pptx.WithSelectedSlide(opts.slide))
			if err != nil {
				return err
			}
			defer doc.Close()

			var slides []extract.SlideContent
			if all {
				slides, err = extract.ExtractDeck(cmd.Context(), doc.SlideCount(), func(n int) (host.Document, error) {
					return doc.Slide(n)
				}, strategy, opts.log)
			} else {
				var content extract.Content
				content, err = extract.New(doc, strategy, opts.log).Extract(cmd.Context())
				slides = []extract.SlideContent{{Slide: opts.slide, Content: content}}
			}
			if err != nil {
				return errors.New(pane.UserMessage(err))
			}

			reports := make([]slideReport, len(slides))
			for i, s := range slides {
				reports[i] = slideReport{Slide: s.Slide, Texts: s.Text, ImageCount: len(s.Images)}
				if reports[i].Texts == nil {
					reports[i].Texts = []string{}
				}
				if withImages {
					reports[i].Images = s.Images
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Extract every slide instead of --slide")
	cmd.Flags().BoolVar(&withImages, "images", false, "Include base64 PNG images in the output")
	return cmd
}

func newProbeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file.pptx>",
		Short: "Show which host capabilities the document supports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := pptx.Open(args[0], pptx.WithSelectedSlide(opts.slide))
			if err != nil {
				return err
			}
			defer doc.Close()

			out := cmd.OutOrStdout()
			for _, c := range []host.Capability{host.CapSlideExport, host.CapPictureExport, host.CapGroupTraversal} {
				a := host.Probe(doc, c)
				if a.Available() {
					fmt.Fprintf(out, "%-16s %s\n", c, a.Status)
					continue
				}
				fmt.Fprintf(out, "%-16s %s (%s)\n", c, a.Status, a.Reason)
			}
			return nil
		},
	}
}

func newFeedbackCmd(opts *options) *cobra.Command {
	var fb suggest.Feedback
	cmd := &cobra.Command{
		Use:   "feedback <suggestion-id>",
		Short: "Rate a suggestion with thumbs up or down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validator.New().Struct(fb); err != nil {
				return fmt.Errorf("invalid feedback: %w", err)
			}
			client := suggest.NewHTTPClient(opts.cfg.BackendURL, opts.cfg.ClientTimeout(), opts.log)
			if err := client.SendFeedback(cmd.Context(), args[0], fb); err != nil {
				return errors.New(pane.UserMessage(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Thanks for the feedback.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&fb.Rating, "rating", "r", "", "up or down")
	cmd.Flags().StringVarP(&fb.Comment, "comment", "c", "", "Optional comment")
	return cmd
}
