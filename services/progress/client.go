// Package progress is a read-only client for the external student progress
// service.
package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notify"
)

type Client struct {
	baseURL string
	http    *http.Client
}

var _ notify.ProgressClient = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: conf.Progress.BaseURL,
		// Timeout caps each fetch so one slow student cannot stall a whole
		// progress-check run.
		http: &http.Client{Timeout: conf.Progress.Timeout},
	}
}

func (c *Client) Fetch(ctx context.Context, courseKey, studentID, lessonID string) (notify.ProgressReport, error) {
	q := url.Values{}
	q.Set("course_id", courseKey)
	q.Set("student_id", studentID)
	q.Set("lesson_id", lessonID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/progress?"+q.Encode(), nil)
	if err != nil {
		return notify.ProgressReport{}, errors.Wrap(err, "building progress request")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return notify.ProgressReport{}, errors.Wrap(err, "calling progress api")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return notify.ProgressReport{}, errors.Errorf("progress api: status %d", res.StatusCode)
	}

	var report notify.ProgressReport
	if err = json.NewDecoder(res.Body).Decode(&report); err != nil {
		return notify.ProgressReport{}, errors.Wrap(err, "parsing progress response")
	}
	return report, nil
}
