package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the public Airtable REST endpoint.
const DefaultBaseURL = "https://api.airtable.com/v0"

const defaultTimeout = 10 * time.Second

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "portal",
		Subsystem: "airtable",
		Name:      "request_duration_seconds",
		Help:      "Duration of Airtable list requests, per page.",
	}, []string{"table"})

	requestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "airtable",
		Name:      "request_failures_total",
		Help:      "Number of failed Airtable list requests.",
	}, []string{"table"})
)

// Config contains the credentials and endpoint used to reach a base.
type Config struct {
	APIKey  string
	BaseID  string
	BaseURL string
	Timeout time.Duration
}

// Direction orders a sort field.
type Direction string

// Sort directions accepted by the list endpoint.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Sort describes one sort key.
type Sort struct {
	Field     string
	Direction Direction
}

// ListOptions narrows a records-list call.
type ListOptions struct {
	View            string
	FilterByFormula string
	Sort            []Sort
	Fields          []string
	PageSize        int
}

// Record is a single row returned by the list endpoint.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// Client lists records from a single Airtable base.
type Client struct {
	baseURL string
	baseID  string
	apiKey  string
	http    *http.Client
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// New builds a client for the configured base.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" || cfg.BaseID == "" {
		return nil, fmt.Errorf("airtable api key and base id must be provided")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		baseID:  cfg.BaseID,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("github.com/noah-isme/student-portal-api/pkg/airtable"),
		logger:  logger.With().Str("component", "airtable").Logger(),
	}, nil
}

// ListRecords returns every record of table matching opts, following
// pagination offsets until the result set is exhausted.
func (c *Client) ListRecords(parent context.Context, table string, opts ListOptions) ([]Record, error) {
	ctx, span := c.tracer.Start(parent, "airtable.list_records", trace.WithAttributes(
		attribute.String("airtable.table", table),
		attribute.String("airtable.view", opts.View),
	))
	defer span.End()

	var (
		records []Record
		offset  string
		pages   int
	)
	for {
		page, err := c.listPage(ctx, table, opts, offset)
		if err != nil {
			requestFailures.WithLabelValues(table).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "list_records_failed")
			return nil, err
		}

		records = append(records, page.Records...)
		pages++
		if page.Offset == "" || page.Offset == offset {
			break
		}
		offset = page.Offset
	}

	span.SetAttributes(
		attribute.Int("airtable.pages", pages),
		attribute.Int("airtable.records", len(records)),
	)
	c.logger.Debug().Str("table", table).Int("pages", pages).Int("records", len(records)).Msg("listed airtable records")

	return records, nil
}

func (c *Client) listPage(ctx context.Context, table string, opts ListOptions, offset string) (listResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(table), encodeQuery(opts, offset).Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return listResponse{}, fmt.Errorf("build airtable request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	requestDuration.WithLabelValues(table).Observe(time.Since(start).Seconds())
	if err != nil {
		return listResponse{}, &APIError{Table: table, Message: redactTransportError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return listResponse{}, newAPIError(table, resp.StatusCode, body)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var out listResponse
	if err := decoder.Decode(&out); err != nil {
		return listResponse{}, fmt.Errorf("decode airtable response for %s: %w", table, err)
	}

	return out, nil
}

func encodeQuery(opts ListOptions, offset string) url.Values {
	params := url.Values{}
	if opts.View != "" {
		params.Set("view", opts.View)
	}
	if opts.FilterByFormula != "" {
		params.Set("filterByFormula", opts.FilterByFormula)
	}
	for i, s := range opts.Sort {
		params.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		direction := s.Direction
		if direction == "" {
			direction = Ascending
		}
		params.Set(fmt.Sprintf("sort[%d][direction]", i), string(direction))
	}
	for _, field := range opts.Fields {
		params.Add("fields[]", field)
	}
	if opts.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if offset != "" {
		params.Set("offset", offset)
	}
	return params
}

// redactTransportError drops the request URL that net/http embeds in
// transport errors; only the underlying cause is kept.
func redactTransportError(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Sprintf("request failed: %v", urlErr.Err)
	}
	return "request failed"
}

// EscapeFormulaString escapes a value for use inside a single-quoted
// formula string literal.
func EscapeFormulaString(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `'`, `\'`)
}

// Text returns the field as display text. Strings are returned as-is,
// numbers in their literal form, and arrays (lookup/rollup fields) joined
// with ", ". Missing, null and empty values report false.
func (r Record) Text(field string) (string, bool) {
	value, ok := r.Fields[field]
	if !ok || value == nil {
		return "", false
	}
	text := stringify(value)
	if text == "" {
		return "", false
	}
	return text, true
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
