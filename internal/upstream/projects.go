package upstream

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"strconv"

	"github.com/plmware/forecast-api/internal/domain"
)

// UserProjects fetches the caller's project records for a fiscal year.
// The backend scopes the result by the roles in the bearer token, so two
// users may see different datasets for the same query.
func (c *Client) UserProjects(ctx context.Context, year int) ([]domain.Record, error) {
	query := url.Values{}
	query.Set("year", strconv.Itoa(year))

	var records []domain.Record
	if err := c.get(ctx, "/api/projects/user-projects", query, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Project fetches a single project record by id
func (c *Client) Project(ctx context.Context, projectID string) (*domain.Record, error) {
	var record domain.Record
	if err := c.get(ctx, "/api/projects/"+url.PathEscape(projectID), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// createProjectPayload is the backend's shape for a new project forecast
type createProjectPayload struct {
	ProjectName   string                 `json:"project_name"`
	ForecastType  domain.ForecastType    `json:"forecast_type"`
	ProjectNumber string                 `json:"project_number,omitempty"`
	OPID          string                 `json:"op_id,omitempty"`
	Region        string                 `json:"region"`
	SourceCountry string                 `json:"source_country,omitempty"`
	Vertical      string                 `json:"vertical"`
	Currency      string                 `json:"currency"`
	CustomerGroup string                 `json:"customer_group"`
	CustomerName  string                 `json:"customer_name,omitempty"`
	ClusterID     string                 `json:"cluster_id"`
	ManagerID     string                 `json:"manager_id"`
	Forecasts     []domain.ForecastEntry `json:"forecasts"`
}

// CreateProject registers a new project forecast upstream
func (c *Client) CreateProject(ctx context.Context, req *domain.CreateProjectRequest, entries []domain.ForecastEntry) (*domain.Record, error) {
	payload := createProjectPayload{
		ProjectName:   req.ProjectName,
		ForecastType:  req.ForecastType,
		ProjectNumber: req.ProjectNumber,
		OPID:          req.OPID,
		Region:        req.Region,
		SourceCountry: req.SourceCountry,
		Vertical:      req.Vertical,
		Currency:      req.Currency,
		CustomerGroup: req.CustomerGroup,
		CustomerName:  req.CustomerName,
		ClusterID:     req.ClusterID,
		ManagerID:     req.ManagerID,
		Forecasts:     entries,
	}

	var created domain.Record
	if err := c.post(ctx, "/api/projects/add-project", payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CheckOPForecast asks the backend what submitting the given OP id and
// forecast type would do: conflict with an existing forecast, create a
// fresh one, or aggregate onto one.
func (c *Client) CheckOPForecast(ctx context.Context, opID string, year int, forecastType domain.ForecastType) (*domain.CheckOPForecastResult, error) {
	query := url.Values{}
	query.Set("op_id", opID)
	query.Set("year", strconv.Itoa(year))
	query.Set("forecast_type", string(forecastType))

	var result domain.CheckOPForecastResult
	if err := c.get(ctx, "/api/projects/check-op-forecast", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateProject replaces a project forecast's master data and monthly
// amounts upstream.
func (c *Client) UpdateProject(ctx context.Context, projectID string, req *domain.CreateProjectRequest, entries []domain.ForecastEntry) (*domain.Record, error) {
	payload := createProjectPayload{
		ProjectName:   req.ProjectName,
		ForecastType:  req.ForecastType,
		ProjectNumber: req.ProjectNumber,
		OPID:          req.OPID,
		Region:        req.Region,
		SourceCountry: req.SourceCountry,
		Vertical:      req.Vertical,
		Currency:      req.Currency,
		CustomerGroup: req.CustomerGroup,
		CustomerName:  req.CustomerName,
		ClusterID:     req.ClusterID,
		ManagerID:     req.ManagerID,
		Forecasts:     entries,
	}

	var updated domain.Record
	if err := c.put(ctx, "/api/projects/update-project/"+url.PathEscape(projectID), payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProject removes a project forecast upstream
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	return c.del(ctx, "/api/projects/delete-project/"+url.PathEscape(projectID))
}

// replaceForecastsPayload swaps a record's full forecast list for a year
type replaceForecastsPayload struct {
	ProjectID    string                 `json:"project_id"`
	ForecastType domain.ForecastType    `json:"forecast_type"`
	Year         int                    `json:"year"`
	Forecasts    []domain.ForecastEntry `json:"forecasts"`
}

// ReplaceForecasts swaps all of a record's monthly amounts for one fiscal
// year, as opposed to the sparse per-cell update of UpdateEditedForecast.
func (c *Client) ReplaceForecasts(ctx context.Context, projectID string, year int, forecastType domain.ForecastType, entries []domain.ForecastEntry) error {
	payload := replaceForecastsPayload{
		ProjectID:    projectID,
		ForecastType: forecastType,
		Year:         year,
		Forecasts:    entries,
	}
	return c.put(ctx, "/api/projects/replace-forecasts", payload, nil)
}

// updateEditedPayload carries one record's changed months
type updateEditedPayload struct {
	ProjectID    string                 `json:"project_id"`
	ForecastType domain.ForecastType    `json:"forecast_type"`
	Year         int                    `json:"year"`
	Forecasts    []domain.ForecastEntry `json:"forecasts"`
}

// UpdateEditedForecast replaces the changed month amounts for a single
// record. Callers send records one at a time and stop on the first
// failure.
func (c *Client) UpdateEditedForecast(ctx context.Context, projectID string, year int, edit domain.RecordEdit, entries []domain.ForecastEntry) error {
	payload := updateEditedPayload{
		ProjectID:    projectID,
		ForecastType: edit.ForecastType,
		Year:         year,
		Forecasts:    entries,
	}
	return c.put(ctx, "/api/projects/update-edited-forecasts", payload, nil)
}

// ImportActuals forwards an actuals workbook to the backend. The
// workbook is wrapped in a fresh multipart body so the boundary in the
// Content-Type header always matches what is sent.
func (c *Client) ImportActuals(ctx context.Context, filename string, data []byte) (*domain.ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload body: %w", err)
	}

	var result domain.ImportResult
	if err := c.postMultipart(ctx, "/api/projects/import-actuals", mw.FormDataContentType(), &buf, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
