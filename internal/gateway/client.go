package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/vrsandeep/readalong/internal/apperrors"
	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/pages"
)

// Client talks to a readalong server over its REST API, holding the login
// cookie between calls.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ProgressSync = (*Client)(nil)

// NewClient returns a Client for the server at baseURL.
func NewClient(baseURL string) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 20 * time.Second, Jar: jar},
	}, nil
}

// Login starts an authenticated session.
func (c *Client) Login(ctx context.Context, username, password string) (*models.User, error) {
	body := map[string]string{"username": username, "password": password}
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/api/users/login", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/users/logout", nil, nil)
}

// ServerVersion returns the version the server reports.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	var resp struct {
		Version string `json:"version"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/version", nil, &resp); err != nil {
		return "", err
	}
	return resp.Version, nil
}

// CheckServerVersion fails when the server's major version differs from
// clientVersion. Development builds without a semantic version pass.
func (c *Client) CheckServerVersion(ctx context.Context, clientVersion string) error {
	serverVersion, err := c.ServerVersion(ctx)
	if err != nil {
		return err
	}
	return CompatibleVersions(clientVersion, serverVersion)
}

// CompatibleVersions reports an error if a and b have different majors.
func CompatibleVersions(a, b string) error {
	va, errA := semver.NewVersion(strings.TrimPrefix(a, "v"))
	vb, errB := semver.NewVersion(strings.TrimPrefix(b, "v"))
	if errA != nil || errB != nil {
		return nil
	}
	if va.Major() != vb.Major() {
		return fmt.Errorf("server version %s is not compatible with client version %s", vb, va)
	}
	return nil
}

func (c *Client) GetProgress(ctx context.Context, groupID int64) (*models.ReadingProgress, error) {
	var p models.ReadingProgress
	if err := c.do(ctx, http.MethodGet, groupPath(groupID, "progress"), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) SetReadingSpeed(ctx context.Context, groupID int64, minutes int) (*models.ReadingProgress, error) {
	body := map[string]int{"reading_speed_minutes": minutes}
	var p models.ReadingProgress
	if err := c.do(ctx, http.MethodPost, groupPath(groupID, "progress"), body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) SetCurrentPage(ctx context.Context, groupID int64, page int) (*models.ReadingProgress, error) {
	body := map[string]int{"current_page": page}
	var p models.ReadingProgress
	if err := c.do(ctx, http.MethodPut, groupPath(groupID, "progress"), body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListChapterSchedules(ctx context.Context, groupID int64) ([]*models.ChapterSchedule, error) {
	var list []*models.ChapterSchedule
	if err := c.do(ctx, http.MethodGet, groupPath(groupID, "chapter-schedules"), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UpsertChapterSchedules returns the server's result even when every item
// was rejected; the reasons are in Errors.
func (c *Client) UpsertChapterSchedules(ctx context.Context, groupID int64, items []models.ChapterScheduleInput) (*models.UpsertResult, error) {
	body := map[string]interface{}{"schedules": items}
	var result models.UpsertResult
	err := c.do(ctx, http.MethodPost, groupPath(groupID, "chapter-schedules"), body, &result)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusBadRequest && len(se.Body) > 0 {
		if json.Unmarshal(se.Body, &result) == nil && len(result.Errors) > 0 {
			return &result, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ToggleChapterCompletion(ctx context.Context, groupID, scheduleID int64, completed bool) (*models.ChapterSchedule, error) {
	return c.UpdateChapterSchedule(ctx, groupID, scheduleID, ScheduleUpdate{Completed: &completed})
}

func (c *Client) UpdateChapterSchedule(ctx context.Context, groupID, scheduleID int64, upd ScheduleUpdate) (*models.ChapterSchedule, error) {
	var cs models.ChapterSchedule
	path := groupPath(groupID, fmt.Sprintf("chapter-schedules/%d", scheduleID))
	if err := c.do(ctx, http.MethodPut, path, upd, &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}

func (c *Client) DeleteChapterSchedule(ctx context.Context, groupID, scheduleID int64) error {
	path := groupPath(groupID, fmt.Sprintf("chapter-schedules/%d", scheduleID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ListGroupsForMember(ctx context.Context) ([]*models.Group, error) {
	var list []*models.Group
	if err := c.do(ctx, http.MethodGet, "/api/groups", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetProgressStats(ctx context.Context, groupID int64) (*models.ProgressStats, error) {
	var stats models.ProgressStats
	if err := c.do(ctx, http.MethodGet, groupPath(groupID, "progress-stats"), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) ListProgress(ctx context.Context) ([]*models.ReadingProgress, error) {
	var list []*models.ReadingProgress
	if err := c.do(ctx, http.MethodGet, "/api/progress", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) Reminders(ctx context.Context) ([]*models.ReminderEvent, error) {
	var list []*models.ReminderEvent
	if err := c.do(ctx, http.MethodGet, "/api/reminders", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) Chapters(ctx context.Context, groupID int64) (*GroupChapters, error) {
	var gc GroupChapters
	if err := c.do(ctx, http.MethodGet, groupPath(groupID, "chapters"), nil, &gc); err != nil {
		return nil, err
	}
	return &gc, nil
}

// Page fetches the text of one page of the group's book.
func (c *Client) Page(ctx context.Context, groupID int64, number int) (*pages.Page, error) {
	var p pages.Page
	if err := c.do(ctx, http.MethodGet, groupPath(groupID, fmt.Sprintf("pages/%d", number)), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func groupPath(groupID int64, rest string) string {
	return fmt.Sprintf("/api/groups/%d/%s", groupID, rest)
}

// StatusError is a non-2xx response. It matches the apperrors sentinel for
// its status code under errors.Is.
type StatusError struct {
	Code    int
	Message string
	Body    []byte
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case e.Code == http.StatusForbidden:
		return apperrors.ErrNotAMember
	case e.Code == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.Code == http.StatusBadRequest:
		return apperrors.ErrValidation
	case e.Code == http.StatusConflict:
		return apperrors.ErrConflict
	default:
		return apperrors.ErrTransientSync
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", apperrors.ErrTransientSync, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", apperrors.ErrTransientSync, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode, Body: data}
		var msg struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &msg) == nil {
			se.Message = msg.Error
		}
		return se
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
