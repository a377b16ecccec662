package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/david/opportunity-ranker/internal/auth"
	"github.com/david/opportunity-ranker/internal/db"
	"github.com/david/opportunity-ranker/internal/models"
	"github.com/david/opportunity-ranker/internal/ranking"
)

// RecordStore supplies the materialized records and persisted weights.
// *db.Store satisfies it.
type RecordStore interface {
	ListRecords(ctx context.Context) ([]models.OpportunityRecord, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*models.OpportunityRecord, error)
	GetWeights(ctx context.Context, userID uuid.UUID) (models.ScoreWeights, error)
	SaveWeights(ctx context.Context, userID uuid.UUID, w models.ScoreWeights) error
}

type Options struct {
	CORSOrigins     []string
	JWTSecret       []byte
	DefaultPageSize int
	MaxPageSize     int
}

type Server struct {
	Store RecordStore
	Echo  *echo.Echo
	Now   func() time.Time

	opts Options
}

func NewServer(store RecordStore, opts Options) *Server {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 20
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPut},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s := &Server{
		Store: store,
		Echo:  e,
		Now:   func() time.Time { return time.Now().UTC() },
		opts:  opts,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")

	// Anonymous callers get default weights; signed-in callers get their own.
	public := api.Group("", auth.Optional(s.opts.JWTSecret))
	public.GET("/opportunities", s.handleListOpportunities)
	public.GET("/opportunities/:id", s.handleGetOpportunity)
	public.GET("/meta", s.handleGetMeta)

	settings := api.Group("/settings", auth.Middleware(s.opts.JWTSecret))
	settings.GET("/weights", s.handleGetWeights)
	settings.PUT("/weights", s.handleSaveWeights)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleListOpportunities(c echo.Context) error {
	ctx := c.Request().Context()

	weights, err := s.callerWeights(c)
	if err != nil {
		c.Logger().Errorf("Failed to load weights: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	q, parseErrs := s.parseQuery(c, weights)
	if err := q.Validate(); err != nil || len(parseErrs) > 0 {
		var invalid *ranking.InvalidQueryError
		if errors.As(err, &invalid) {
			parseErrs = append(parseErrs, invalid.Fields...)
		}
		return invalidQuery(c, parseErrs)
	}

	records, err := s.Store.ListRecords(ctx)
	if err != nil {
		c.Logger().Errorf("Failed to list records: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	result, err := ranking.RunQuery(records, q)
	if err != nil {
		var invalid *ranking.InvalidQueryError
		if errors.As(err, &invalid) {
			return invalidQuery(c, invalid.Fields)
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid opportunity ID"})
	}

	rec, err := s.Store.GetRecord(c.Request().Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	if err != nil {
		c.Logger().Errorf("Failed to get record %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	weights, err := s.callerWeights(c)
	if err != nil {
		c.Logger().Errorf("Failed to load weights: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	weights, errs := applyWeightOverrides(c, weights)
	if len(errs) > 0 {
		return invalidQuery(c, errs)
	}

	scored := ranking.Score(*rec, weights, splitCSV(c.QueryParam("interests")), s.Now())
	return c.JSON(http.StatusOK, scored)
}

// handleGetMeta lists the accepted enum values so clients can build their
// filter and sort controls.
func (s *Server) handleGetMeta(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sort_keys": []ranking.SortKey{
			ranking.SortByTotalScore, ranking.SortByDueDate, ranking.SortByEstimatedValue,
			ranking.SortByPostedDate, ranking.SortByTitle,
		},
		"statuses":          []models.Status{models.StatusActive, models.StatusClosed, models.StatusUpcoming},
		"source_types":      models.SourceTypes,
		"default_weights":   models.DefaultScoreWeights(),
		"default_page_size": s.opts.DefaultPageSize,
		"max_page_size":     s.opts.MaxPageSize,
	})
}

func (s *Server) handleGetWeights(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	w, err := s.Store.GetWeights(c.Request().Context(), userID)
	if err != nil {
		c.Logger().Errorf("Failed to get weights: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load weights"})
	}
	return c.JSON(http.StatusOK, weightsResponse(w))
}

func (s *Server) handleSaveWeights(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var w models.ScoreWeights
	if err := c.Bind(&w); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := ranking.ValidateWeights(w); err != nil {
		var invalid *ranking.InvalidQueryError
		if errors.As(err, &invalid) {
			return invalidQuery(c, invalid.Fields)
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := s.Store.SaveWeights(c.Request().Context(), userID, w); err != nil {
		c.Logger().Errorf("Failed to save weights: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save weights"})
	}
	return c.JSON(http.StatusOK, weightsResponse(w))
}

func weightsResponse(w models.ScoreWeights) map[string]interface{} {
	resp := map[string]interface{}{"weights": w, "sum": w.Sum()}
	if w.Sum() != 100 {
		resp["warning"] = "weights do not sum to 100; scores will be normalized"
	}
	return resp
}

// callerWeights returns the signed-in caller's saved weights, or the defaults
// for anonymous requests.
func (s *Server) callerWeights(c echo.Context) (models.ScoreWeights, error) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return models.DefaultScoreWeights(), nil
	}
	return s.Store.GetWeights(c.Request().Context(), userID)
}

func invalidQuery(c echo.Context, fields []ranking.FieldError) error {
	return c.JSON(http.StatusBadRequest, map[string]interface{}{
		"error":  "invalid query",
		"fields": fields,
	})
}

// parseQuery maps query parameters onto a ranking.Query. Values that are not
// numbers where numbers are expected are reported rather than ignored.
func (s *Server) parseQuery(c echo.Context, weights models.ScoreWeights) (ranking.Query, []ranking.FieldError) {
	var errs []ranking.FieldError

	q := ranking.Query{
		SearchTerm:       strings.TrimSpace(c.QueryParam("q")),
		StatusFilter:     strings.ToLower(strings.TrimSpace(c.QueryParam("status"))),
		SourceTypeFilter: strings.ToLower(strings.TrimSpace(c.QueryParam("source_type"))),
		SortBy:           ranking.SortKey(strings.TrimSpace(c.QueryParam("sort"))),
		SortOrder:        ranking.SortOrder(strings.ToLower(strings.TrimSpace(c.QueryParam("order")))),
		InterestTerms:    splitCSV(c.QueryParam("interests")),
		Page:             1,
		PageSize:         s.opts.DefaultPageSize,
		Now:              s.Now(),
	}

	if v, ok, err := intParam(c, "page"); err != nil {
		errs = append(errs, ranking.FieldError{Field: "page", Reason: "must be an integer"})
	} else if ok {
		q.Page = v
	}

	if v, ok, err := intParam(c, "page_size"); err != nil {
		errs = append(errs, ranking.FieldError{Field: "pageSize", Reason: "must be an integer"})
	} else if ok {
		q.PageSize = min(v, s.opts.MaxPageSize)
	}

	if v, ok, err := intParam(c, "min_score"); err != nil {
		errs = append(errs, ranking.FieldError{Field: "scoreThreshold", Reason: "must be an integer"})
	} else if ok {
		q.ScoreThreshold = &v
	}

	var r ranking.ValueRange
	if v, ok, err := floatParam(c, "min_value"); err != nil {
		errs = append(errs, ranking.FieldError{Field: "valueRange.min", Reason: "must be a number"})
	} else if ok {
		r.Min = &v
	}
	if v, ok, err := floatParam(c, "max_value"); err != nil {
		errs = append(errs, ranking.FieldError{Field: "valueRange.max", Reason: "must be a number"})
	} else if ok {
		r.Max = &v
	}
	if r.Min != nil || r.Max != nil {
		q.ValueRange = &r
	}

	weights, weightErrs := applyWeightOverrides(c, weights)
	q.Weights = weights
	errs = append(errs, weightErrs...)

	return q, errs
}

// applyWeightOverrides lets a single request try out weights without saving
// them, via w_relevance, w_urgency, w_value and w_competition.
func applyWeightOverrides(c echo.Context, w models.ScoreWeights) (models.ScoreWeights, []ranking.FieldError) {
	var errs []ranking.FieldError
	overrides := []struct {
		param string
		field string
		dst   *int
	}{
		{"w_relevance", "weights.relevance_weight", &w.RelevanceWeight},
		{"w_urgency", "weights.urgency_weight", &w.UrgencyWeight},
		{"w_value", "weights.value_weight", &w.ValueWeight},
		{"w_competition", "weights.competition_weight", &w.CompetitionWeight},
	}
	for _, o := range overrides {
		v, ok, err := intParam(c, o.param)
		if err != nil {
			errs = append(errs, ranking.FieldError{Field: o.field, Reason: "must be an integer"})
			continue
		}
		if ok {
			*o.dst = v
		}
	}
	return w, errs
}

func intParam(c echo.Context, name string) (int, bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func floatParam(c echo.Context, name string) (float64, bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// splitCSV splits a comma-separated query parameter into trimmed non-empty strings.
func splitCSV(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
