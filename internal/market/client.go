package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/roach88/provermarket/internal/fault"
)

// BatchAssignment is the server's answer to a get_batch request.
type BatchAssignment struct {
	BatchFile string `json:"batch_file"`
	RequestID uint32 `json:"request_id"`
}

// Config configures a Client.
type Config struct {
	URL string
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
}

// Client fetches assignments and artifacts from one server.
type Client struct {
	rc *resty.Client
}

// NewClient returns a Client for conf.URL.
func NewClient(conf Config) (*Client, error) {
	base := strings.TrimRight(conf.URL, "/")
	if base == "" {
		return nil, fault.New(fault.KindConfig, "server URL is required")
	}
	rc := resty.New().
		SetBaseURL(base).
		SetRetryCount(0).
		SetHeader("User-Agent", "provermarket")
	if conf.Timeout > 0 {
		rc.SetTimeout(conf.Timeout)
	}
	return &Client{rc: rc}, nil
}

// WrapRestyClient builds a Client around an existing resty client.
func WrapRestyClient(rc *resty.Client) *Client {
	return &Client{rc: rc}
}

// FetchBatchAssignment asks the server which batch participantID should prove next.
func (c *Client) FetchBatchAssignment(ctx context.Context, participantID string) (BatchAssignment, error) {
	res, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("participant_id", participantID).
		SetHeader("Accept", "application/json").
		Get("/get_batch/")
	if err != nil {
		return BatchAssignment{}, fault.Transport("get batch assignment", err)
	}
	if !res.IsSuccess() {
		return BatchAssignment{}, fault.Newf(fault.KindTransport,
			"get batch assignment: server returned %s", res.Status())
	}

	var a BatchAssignment
	if err := json.Unmarshal(res.Body(), &a); err != nil {
		return BatchAssignment{}, fault.Transport("parse batch assignment", err)
	}
	if a.BatchFile == "" {
		return BatchAssignment{}, fault.New(fault.KindTransport, "parse batch assignment: batch_file is empty")
	}
	return a, nil
}

// FetchArtifact downloads the artifact named by a.
func (c *Client) FetchArtifact(ctx context.Context, a BatchAssignment) ([]byte, error) {
	name := strings.TrimLeft(a.BatchFile, "/")
	if name == "" {
		return nil, fault.New(fault.KindTransport, "download artifact: batch file is empty")
	}
	res, err := c.rc.R().
		SetContext(ctx).
		Get("/" + name)
	if err != nil {
		return nil, fault.Transport(fmt.Sprintf("download %s", name), err)
	}
	if !res.IsSuccess() {
		return nil, fault.Newf(fault.KindTransport, "download %s: server returned %s", name, res.Status())
	}
	body := res.Body()
	if len(body) == 0 {
		return nil, fault.Newf(fault.KindTransport, "download %s: empty body", name)
	}
	return body, nil
}
