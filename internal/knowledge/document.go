package knowledge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Document is a dataset as stored in the vector collection. Chromem keeps
// only string metadata, so rows travel as JSON.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata holds the searchable and structured fields of a Document.
type DocumentMetadata struct {
	Title              string
	Source             string
	SourceURL          string
	Domain             string
	Region             string
	PeriodStart        string
	PeriodEnd          string
	HasHistoricalDepth bool
	Columns            []string
	MetricColumn       string
	TimeColumn         string
	GroupColumn        string
	RowCount           int
	RowsJSON           string
	IngestedAt         time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows a search by metadata fields.
type SearchFilter struct {
	Domain             *string
	HasHistoricalDepth *bool
}

// NewDocument converts a validated dataset into a storable document.
func NewDocument(d Dataset, now time.Time) (Document, error) {
	rows, err := json.Marshal(d.Rows)
	if err != nil {
		return Document{}, fmt.Errorf("encoding rows of %s: %w", d.ID, err)
	}
	start, end := d.PeriodRange()
	return Document{
		ID:      d.ID,
		Content: d.EmbeddingText(),
		Metadata: DocumentMetadata{
			Title:              d.Title,
			Source:             d.Source,
			SourceURL:          d.SourceURL,
			Domain:             d.Domain,
			Region:             d.Region,
			PeriodStart:        start,
			PeriodEnd:          end,
			HasHistoricalDepth: d.HasHistoricalDepth(),
			Columns:            d.Columns,
			MetricColumn:       d.MetricColumn,
			TimeColumn:         d.TimeColumn,
			GroupColumn:        d.GroupColumn,
			RowCount:           len(d.Rows),
			RowsJSON:           string(rows),
			IngestedAt:         now.UTC(),
		},
	}, nil
}

// Rows decodes the stored rows. Numbers decode as float64.
func (m DocumentMetadata) Rows() ([]map[string]any, error) {
	if m.RowsJSON == "" {
		return nil, nil
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(m.RowsJSON), &rows); err != nil {
		return nil, fmt.Errorf("decoding stored rows: %w", err)
	}
	return rows, nil
}

func metadataToMap(m DocumentMetadata) map[string]string {
	return map[string]string{
		"title":                m.Title,
		"source":               m.Source,
		"source_url":           m.SourceURL,
		"domain":               m.Domain,
		"region":               m.Region,
		"period_start":         m.PeriodStart,
		"period_end":           m.PeriodEnd,
		"has_historical_depth": strconv.FormatBool(m.HasHistoricalDepth),
		"columns":              strings.Join(m.Columns, "\x1f"),
		"metric_column":        m.MetricColumn,
		"time_column":          m.TimeColumn,
		"group_column":         m.GroupColumn,
		"row_count":            strconv.Itoa(m.RowCount),
		"rows":                 m.RowsJSON,
		"ingested_at":          m.IngestedAt.Format(time.RFC3339),
	}
}

func mapToMetadata(m map[string]string) DocumentMetadata {
	historical, _ := strconv.ParseBool(m["has_historical_depth"])
	rowCount, _ := strconv.Atoi(m["row_count"])
	ingestedAt, _ := time.Parse(time.RFC3339, m["ingested_at"])
	var cols []string
	if m["columns"] != "" {
		cols = strings.Split(m["columns"], "\x1f")
	}
	return DocumentMetadata{
		Title:              m["title"],
		Source:             m["source"],
		SourceURL:          m["source_url"],
		Domain:             m["domain"],
		Region:             m["region"],
		PeriodStart:        m["period_start"],
		PeriodEnd:          m["period_end"],
		HasHistoricalDepth: historical,
		Columns:            cols,
		MetricColumn:       m["metric_column"],
		TimeColumn:         m["time_column"],
		GroupColumn:        m["group_column"],
		RowCount:           rowCount,
		RowsJSON:           m["rows"],
		IngestedAt:         ingestedAt,
	}
}

func buildWhereClause(filter *SearchFilter) map[string]string {
	if filter == nil {
		return nil
	}
	where := make(map[string]string)
	if filter.Domain != nil && *filter.Domain != "" {
		where["domain"] = *filter.Domain
	}
	if filter.HasHistoricalDepth != nil {
		where["has_historical_depth"] = strconv.FormatBool(*filter.HasHistoricalDepth)
	}
	if len(where) == 0 {
		return nil
	}
	return where
}
