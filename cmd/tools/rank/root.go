package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/david/opportunity-ranker/internal/config"
	"github.com/david/opportunity-ranker/internal/db"
	"github.com/david/opportunity-ranker/internal/models"
	"github.com/david/opportunity-ranker/internal/ranking"
)

type rankFlags struct {
	file      string
	fromDB    bool
	search    string
	status    string
	source    string
	minValue  float64
	maxValue  float64
	minScore  int
	sortBy    string
	order     string
	interests []string
	page      int
	pageSize  int
	now       string
	explain   bool
	weights   models.ScoreWeights
}

func newRootCmd(out io.Writer) *cobra.Command {
	f := rankFlags{weights: models.DefaultScoreWeights()}

	cmd := &cobra.Command{
		Use:           "rank",
		Short:         "Rank opportunities and print one page of results",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords(cmd.Context(), f)
			if err != nil {
				return err
			}
			q, err := buildQuery(cmd, f)
			if err != nil {
				return err
			}
			result, err := ranking.RunQuery(records, q)
			if err != nil {
				return err
			}
			renderResult(out, result, f.explain)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.file, "file", "", "YAML file with an `opportunities:` list")
	flags.BoolVar(&f.fromDB, "db", false, "load records from DATABASE_URL instead of a file")
	flags.StringVarP(&f.search, "query", "q", "", "case-insensitive search term")
	flags.StringVar(&f.status, "status", "", "status filter: all, active, closed, upcoming")
	flags.StringVar(&f.source, "source-type", "", "source type filter")
	flags.Float64Var(&f.minValue, "min-value", 0, "minimum estimated value")
	flags.Float64Var(&f.maxValue, "max-value", 0, "maximum estimated value")
	flags.IntVar(&f.minScore, "min-score", 0, "minimum total score (inclusive)")
	flags.StringVar(&f.sortBy, "sort", string(ranking.SortByTotalScore), "sort key: totalScore, dueDate, estimatedValue, postedDate, title")
	flags.StringVar(&f.order, "order", "", "sort order: asc or desc (default depends on sort key)")
	flags.StringSliceVar(&f.interests, "interests", nil, "comma-separated interest terms for relevance")
	flags.IntVar(&f.page, "page", 1, "page number (1-indexed)")
	flags.IntVar(&f.pageSize, "page-size", 10, "results per page")
	flags.StringVar(&f.now, "now", "", "evaluate as of this date (YYYY-MM-DD or RFC3339)")
	flags.BoolVar(&f.explain, "explain", false, "print score explanations under each row")
	flags.IntVar(&f.weights.RelevanceWeight, "w-relevance", f.weights.RelevanceWeight, "relevance weight")
	flags.IntVar(&f.weights.UrgencyWeight, "w-urgency", f.weights.UrgencyWeight, "urgency weight")
	flags.IntVar(&f.weights.ValueWeight, "w-value", f.weights.ValueWeight, "value weight")
	flags.IntVar(&f.weights.CompetitionWeight, "w-competition", f.weights.CompetitionWeight, "competition weight")
	cmd.MarkFlagsMutuallyExclusive("file", "db")
	cmd.MarkFlagsOneRequired("file", "db")

	return cmd
}

func loadRecords(ctx context.Context, f rankFlags) ([]models.OpportunityRecord, error) {
	if f.fromDB {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		return db.NewStore(pool).ListRecords(ctx)
	}

	file, err := os.Open(f.file)
	if err != nil {
		return nil, fmt.Errorf("open records file: %w", err)
	}
	defer file.Close()
	return models.LoadRecordsYAML(file)
}

// buildQuery only sets the optional filters whose flags were given, so that
// an unset flag never turns into a zero-valued filter.
func buildQuery(cmd *cobra.Command, f rankFlags) (ranking.Query, error) {
	q := ranking.Query{
		SearchTerm:       f.search,
		StatusFilter:     strings.ToLower(f.status),
		SourceTypeFilter: strings.ToLower(f.source),
		SortBy:           ranking.SortKey(f.sortBy),
		SortOrder:        ranking.SortOrder(strings.ToLower(f.order)),
		Weights:          f.weights,
		InterestTerms:    f.interests,
		Page:             f.page,
		PageSize:         f.pageSize,
	}

	changed := cmd.Flags().Changed
	if changed("min-score") {
		q.ScoreThreshold = &f.minScore
	}
	if changed("min-value") || changed("max-value") {
		q.ValueRange = &ranking.ValueRange{}
		if changed("min-value") {
			q.ValueRange.Min = &f.minValue
		}
		if changed("max-value") {
			q.ValueRange.Max = &f.maxValue
		}
	}
	if f.now != "" {
		t, ok := models.ParseDate(f.now)
		if !ok {
			return q, fmt.Errorf("invalid --now %q", f.now)
		}
		q.Now = t
	}

	return q, nil
}

func renderResult(out io.Writer, result ranking.QueryResult, explain bool) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"#", "Title", "Agency", "Source", "Status", "Due", "Value", "Rel", "Urg", "Val", "Comp", "Total"})

	offset := (result.Page - 1) * result.PageSize
	for i, it := range result.Items {
		t.AppendRow(table.Row{
			offset + i + 1,
			truncate(it.Title, 48),
			truncate(it.AgencyName, 28),
			it.SourceType,
			it.Status,
			formatDate(it.DueDate),
			formatValue(it.EstimatedValue),
			it.RelevanceScore,
			it.UrgencyScore,
			it.ValueScore,
			it.CompetitionScore,
			it.TotalScore,
		})
		if explain {
			t.AppendRow(table.Row{"", strings.Join(it.ScoreExplanation, "; ")})
			t.AppendSeparator()
		}
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("page %d of %d", result.Page, result.PageCount), fmt.Sprintf("%d total", result.Total)})
	t.Render()
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format("2006-01-02")
}

func formatValue(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.0f", *v)
}
