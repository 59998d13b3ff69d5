package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-search/internal/ai"
	"github.com/spigell/cv-search/internal/candidates"
	"github.com/spigell/cv-search/internal/cvsearch"
	"github.com/spigell/cv-search/internal/filtering"
	"github.com/spigell/cv-search/internal/logger"
	"github.com/spigell/cv-search/internal/matchbars"
	"github.com/spigell/cv-search/internal/query"
	"github.com/spigell/cv-search/internal/scoring"
	"github.com/spigell/cv-search/internal/secrets"
	"github.com/spigell/cv-search/internal/session"
)

const (
	PromptDetails             = "Show candidate details"
	PromptRefine              = "Refine search"
	PromptClear               = "Clear search"
	PromptHistory             = "Search history"
	PromptCandidatesToFile    = "Dump candidates to file"
	PromptAppendToExcludeFile = "Append all candidates to exclude file"
	PromptExit                = "Exit"
	PromptBack                = "back"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptDetails, PromptRefine, PromptClear, PromptHistory, PromptCandidatesToFile, PromptAppendToExcludeFile, PromptExit},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search candidates and rank them against the query",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		search(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolP("non-interactive", "n", false, "print the ranked list and exit")
	searchCmd.Flags().IntP("limit", "l", cvsearch.DefaultLimit, "maximum number of candidates to fetch")
	searchCmd.Flags().Int("min-score", 0, "drop candidates scoring below this value")
	searchCmd.Flags().StringP("exclude-file", "e", "", "special file with candidates to exclude. Default is unset.")
	searchCmd.Flags().Bool("enrich", false, "fetch AI-extracted metadata for every candidate")

	viper.BindPFlag("cvsearch.limit", searchCmd.Flags().Lookup("limit"))
	viper.BindPFlag("search.min-score", searchCmd.Flags().Lookup("min-score"))
	viper.BindPFlag("search.exclude-file", searchCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("cvsearch.enrich-metadata", searchCmd.Flags().Lookup("enrich"))
}

// pipeline holds everything a search session needs after startup.
type pipeline struct {
	logger     *zap.Logger
	config     *Config
	controller *session.Controller
	filters    []filtering.Filter
	out        io.Writer
}

func search(cmd *cobra.Command, q string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cv-search", zap.String("version", resolveVersion()))

	if err := query.Validate(q); err != nil {
		logger.Fatal("invalid query", zap.Error(err), zap.Strings("try", query.Suggestions(q)))
	}

	if strings.TrimSpace(config.CVSearch.URL) == "" {
		logger.Fatal("cv search url is required", zap.String("hint", "set cvsearch.url or CV_SEARCH_CVSEARCH_URL"))
	}

	client := cvsearch.New(logger, config.CVSearch.URL, resolveSession(config, logger))
	if config.CVSearch.UserAgent != "" {
		client.UserAgent = config.CVSearch.UserAgent
	}

	list, err := fetchCandidates(ctx, client, config, logger, q)
	if err != nil {
		logger.Fatal("getting candidates", zap.Error(err))
	}

	if len(list) == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates found"))
		return
	}

	filters := newFilters(config, logger)

	list, err = filtering.Run(ctx, filterConfig(config), filtering.Deps{Logger: logger}, filtering.Select(filters, filtering.ExcludeFileName), list)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	scorer, err := ai.NewScorer(ctx, aiConfig(config.AI), logger)
	if err != nil {
		logger.Fatal("building scorer", zap.Error(err))
	}

	controller := session.New(scorer, logger, config.Search.Debounce)
	controller.SetCandidates(list)

	p := &pipeline{logger: logger, config: config, controller: controller, filters: filters, out: os.Stdout}

	ranked, err := p.rank(ctx, q, false)
	if err != nil {
		logger.Fatal("ranking candidates", zap.Error(err))
	}
	p.printList(ranked)

	if nonInteractive, _ := cmd.Flags().GetBool("non-interactive"); nonInteractive {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := p.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func (p *pipeline) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptDetails:
		return p.showDetails()
	case PromptRefine:
		next, err := (&promptui.Prompt{Label: "New query", Validate: query.Validate}).Run()
		if err != nil {
			return err
		}
		ranked, err := p.rank(ctx, next, true)
		if err != nil {
			p.logger.Warn("search failed", zap.Error(err))
			return nil
		}
		p.printList(ranked)
		return nil
	case PromptClear:
		p.printList(p.controller.Clear())
		return nil
	case PromptHistory:
		for _, h := range p.controller.History() {
			fmt.Fprintf(p.out, "%s  %-40q %3d results  %s\n", h.At.Format(time.DateTime), h.Query, h.Results, providerLabel(h.Provider, h.IsFallback))
		}
		return nil
	case PromptCandidatesToFile:
		filename, err := candidates.DumpToTmpFile(p.controller.Candidates())
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		p.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		path := strings.TrimSpace(p.config.Search.ExcludeFile)
		if path == "" {
			p.logger.Warn("exclude file is not configured", zap.String("hint", "set search.exclude-file or pass --exclude-file"))
			return nil
		}
		list := p.controller.Candidates()
		if err := filtering.AppendToFile(path, list, time.Now()); err != nil {
			return fmt.Errorf("append to exclude file: %w", err)
		}
		p.logger.Info("candidates appended to exclude file", zap.String("path", path), zap.Int("count", len(list)))
		return nil
	case PromptExit:
		p.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// rank scores the session candidates and applies the minimum score filter.
// Refinements go through the debounced path.
func (p *pipeline) rank(ctx context.Context, q string, debounced bool) ([]candidates.Candidate, error) {
	params := query.BuildParams(q, time.Now())
	p.logger.Info("ranking candidates", append(logger.SearchFields(q, ""),
		zap.String("position", params.Position),
		zap.Strings("criteria", params.CriteriaList()),
	)...)

	search := p.controller.Search
	if debounced {
		search = p.controller.SearchDebounced
	}

	ranked, err := search(ctx, q)
	if err != nil {
		return nil, err
	}

	if batch := p.controller.LastBatch(); batch != nil {
		p.logger.Info("candidates scored",
			append(logger.SearchFields(q, batch.Provider),
				zap.Bool("fallback", batch.IsFallback),
				zap.Strings("criteria", batch.SearchCriteria),
			)...,
		)
	}

	return filtering.Run(ctx, filterConfig(p.config), filtering.Deps{Logger: p.logger}, filtering.Select(p.filters, filtering.MinScoreName), ranked)
}

func (p *pipeline) printList(list []candidates.Candidate) {
	for i, c := range list {
		score := c.EffectiveScore()
		fmt.Fprintf(p.out, "%3d. %s %3d%%  %-9s  %-30s %s\n",
			i+1, matchbars.Render(c.MatchBars), score, matchbars.Category(score), c.DisplayName, c.Status)
	}

	stats := scoring.ComputeStats(list)
	fmt.Fprintf(p.out, "\n%d candidates, average %d, max %d, min %d | excellent %d, good %d, moderate %d, weak %d, poor %d\n\n",
		stats.Total, stats.Average, stats.Max, stats.Min,
		stats.Buckets.Excellent, stats.Buckets.Good, stats.Buckets.Moderate, stats.Buckets.Weak, stats.Buckets.Poor)
}

func (p *pipeline) showDetails() error {
	list := p.controller.Candidates()
	items := make([]string, 0, len(list)+1)
	items = append(items, PromptBack)
	for _, c := range list {
		items = append(items, fmt.Sprintf("%s %s (%s)", matchbars.Render(c.MatchBars), c.DisplayName, c.ID))
	}

	idx, _, err := (&promptui.Select{Label: "Candidate", Items: items, Size: 15}).Run()
	if err != nil {
		return err
	}
	if idx == 0 {
		return nil
	}

	c, err := p.controller.Select(list[idx-1].ID)
	if err != nil {
		return err
	}
	printDetails(p.out, c)
	return nil
}

func printDetails(w io.Writer, c candidates.Candidate) {
	score := c.EffectiveScore()
	fmt.Fprintf(w, "\n%s  [%s]\n", c.DisplayName, c.Status)
	fmt.Fprintf(w, "%s %d%% %s\n\n", matchbars.Render(c.MatchBars), score, matchbars.Category(score))
	fmt.Fprintf(w, "%s\n%s\n%s\n\n", c.Summary.Intro, c.Summary.Body, c.Summary.Detail)

	fmt.Fprintf(w, "%s:\n", c.Summary.ListTitle)
	for _, h := range c.Summary.Highlights {
		fmt.Fprintf(w, "  - %s\n", h)
	}

	fmt.Fprintf(w, "\nEmail: %s\nPhone: %s\nAddress: %s\n", c.Contact.Email, c.Contact.Phone, c.Contact.Address)

	if c.Explanation != "" {
		fmt.Fprintf(w, "\n%s\n", c.Explanation)
	}
	if len(c.MatchedCriteria) > 0 {
		fmt.Fprintf(w, "Matched: %s\n", strings.Join(c.MatchedCriteria, ", "))
	}
	if len(c.MissingCriteria) > 0 {
		fmt.Fprintf(w, "Missing: %s\n", strings.Join(c.MissingCriteria, ", "))
	}

	fmt.Fprintln(w)
	for _, e := range c.Timeline {
		fmt.Fprintf(w, "%-10s %-28s %s\n", e.Date, e.Title, e.Subtitle)
	}
	fmt.Fprintln(w)
}

func providerLabel(provider string, fallback bool) string {
	if fallback {
		return provider + " (fallback)"
	}
	return provider
}

func fetchCandidates(ctx context.Context, client *cvsearch.Client, config *Config, logger *zap.Logger, q string) ([]candidates.Candidate, error) {
	resp, err := client.Search(ctx, q, config.CVSearch.Limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	policy, err := candidates.ParsePolicy(config.Mapping.Malformed)
	if err != nil {
		return nil, err
	}

	list, err := candidates.NewMapper(policy, logger).Map(resp.Results)
	if err != nil {
		return nil, fmt.Errorf("map results: %w", err)
	}

	logger.Info("getting candidates", zap.Int("count", len(list)))

	if !config.CVSearch.EnrichMetadata || len(list) == 0 {
		return list, nil
	}

	return cvsearch.Enrich(ctx, logger, client, list, config.CVSearch.EnrichConcurrency)
}

// resolveSession loads the session token. Without one the shared test
// session is used.
func resolveSession(config *Config, logger *zap.Logger) string {
	token, err := secrets.Load(secrets.Source{
		Name:  "cv search session",
		Value: config.CVSearch.Session,
		File:  config.CVSearch.SessionFile,
		Env:   []string{"REAL_SEARCH_SESSION"},
	})
	if errors.Is(err, secrets.ErrNotConfigured) {
		logger.Info("using default session", zap.String("hint", "set cvsearch.session-file or CV_SEARCH_CVSEARCH_SESSION"))
		return cvsearch.DefaultSession
	}
	if err != nil {
		logger.Warn("using default session",
			zap.Error(err),
			zap.String("hint", "set cvsearch.session-file or CV_SEARCH_CVSEARCH_SESSION"),
		)
		return cvsearch.DefaultSession
	}
	return token
}

// newFilters builds the filter chain, disabling steps that have nothing to do.
func newFilters(config *Config, logger *zap.Logger) []filtering.Filter {
	steps := filtering.Default()

	if strings.TrimSpace(config.Search.ExcludeFile) == "" {
		filtering.DisableByName(steps, filtering.ExcludeFileName, "exclude file is not set")
	}
	if config.Search.MinScore == 0 {
		filtering.DisableByName(steps, filtering.MinScoreName, "minimum score is not set")
	}

	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter configured",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	return steps
}

func filterConfig(config *Config) *filtering.Config {
	return &filtering.Config{
		MinScore:    config.Search.MinScore,
		ExcludeFile: config.Search.ExcludeFile,
	}
}

func aiConfig(cfg *AIConfig) *ai.Config {
	return &ai.Config{
		Enabled:        cfg.Enabled,
		Provider:       cfg.Provider,
		FallbackToText: cfg.FallbackToText,
		Gemini: &ai.GeminiConfig{
			Model:        cfg.Gemini.Model,
			APIKey:       cfg.Gemini.APIKey,
			APIKeyFile:   cfg.Gemini.APIKeyFile,
			Temperature:  cfg.Gemini.Temperature,
			MaxTokens:    cfg.Gemini.MaxTokens,
			MaxLogLength: cfg.Gemini.MaxLogLength,
		},
	}
}
