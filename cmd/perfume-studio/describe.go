package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"perfume-studio/internal/models"
	"perfume-studio/internal/services/pipeline"
	"perfume-studio/internal/session"
)

type describeFlags struct {
	brand    string
	model    string
	sites    []string
	debug    bool
	vibe     string
	audience string
	keywords string
	length   int
	llm      string
	out      string
	full     bool
}

func newDescribeCommand(flags *globalFlags) *cobra.Command {
	df := &describeFlags{}

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Search, scrape and write one description without the web interface",
		Example: `  perfume-studio describe --brand Xerjoff --model Naxos --keywords "בושם דבש"
  perfume-studio describe --brand Xerjoff --model Naxos --site luckyscent.com --out ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd.Context(), flags, df)
		},
	}

	f := cmd.Flags()
	f.StringVar(&df.brand, "brand", "", "brand name")
	f.StringVar(&df.model, "model", "", "perfume model name")
	f.StringSliceVar(&df.sites, "site", models.DefaultSites, "allowed retailer site (repeatable)")
	f.BoolVar(&df.debug, "debug", false, "print the search strategy trace")
	f.StringVar(&df.vibe, "vibe", models.Vibes[0], "writing vibe")
	f.StringVar(&df.audience, "audience", models.Audiences[0], "target audience")
	f.StringVar(&df.keywords, "keywords", "", "extra SEO keywords")
	f.IntVar(&df.length, "length", models.DefaultLengthWords, "target length in words")
	f.StringVar(&df.llm, "llm", "", "model name (default apis.genai.default_model)")
	f.StringVar(&df.out, "out", "", "write the result into this directory instead of stdout")
	f.BoolVar(&df.full, "full", false, "print the whole SEO response, not only the final version")
	_ = cmd.MarkFlagRequired("brand")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func runDescribe(ctx context.Context, flags *globalFlags, df *describeFlags) error {
	a, zapLog, err := bootstrap(ctx, flags)
	if err != nil {
		return err
	}
	defer zapLog.Sync()
	defer a.Close()

	s := models.NewGenerationSession(session.NewID())
	q := models.SearchQuery{Brand: df.brand, Model: df.model, AllowedSites: df.sites, Debug: df.debug}
	opts := models.WritingOptions{
		Vibe:        df.vibe,
		Audience:    df.audience,
		SEOKeywords: df.keywords,
		LengthWords: df.length,
		Model:       df.llm,
	}

	runErr := a.Pipeline.Run(ctx, s, q, opts)

	if df.debug && s.Search != nil {
		for _, step := range s.Search.Trace {
			fmt.Fprintf(os.Stderr, "strategy %d: %s -> %d items (%s)\n", step.Strategy, step.Query, step.Items, step.Outcome)
		}
	}
	if s.Validation != "" {
		return errors.New(s.Validation)
	}
	if runErr != nil {
		if s.Failure != nil {
			return fmt.Errorf("%s: %s", s.Failure.Stage, s.Failure.Message)
		}
		return runErr
	}

	text := s.FinalCopy
	if df.full || text == "" {
		text = s.FinalText
	}
	if df.out == "" {
		fmt.Println(text)
		return nil
	}

	if err := os.MkdirAll(df.out, 0o755); err != nil {
		return err
	}
	path := filepath.Join(df.out, pipeline.DownloadFilename(q.Brand, q.Model))
	if err := os.WriteFile(path, []byte(s.FinalText), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	return nil
}
