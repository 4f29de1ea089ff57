package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beanbocchi/tubeup/pkg/uploader"
)

// Client is the tubeup SDK client. It negotiates multipart sessions with a
// tubeup server and satisfies uploader.Negotiator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ uploader.Negotiator = (*Client)(nil)

// NewClient creates a new SDK client
// baseURL is the base URL of the API, e.g., "http://localhost:8080/api/v1"
func NewClient(baseURL string) *Client {
	return NewClientWithHTTPClient(baseURL, &http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewClientWithHTTPClient creates an SDK client with a custom HTTP client
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type initiateRequest struct {
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	ContentType string `json:"contentType,omitempty"`
}

type partURL struct {
	PartNumber int    `json:"partNumber"`
	URL        string `json:"url"`
}

type initiateResponse struct {
	SessionID string    `json:"sessionId"`
	ObjectKey string    `json:"objectKey"`
	PartSize  int64     `json:"partSize"`
	NumParts  int       `json:"numParts"`
	Parts     []partURL `json:"parts"`
	FileURL   string    `json:"fileUrl"`
}

// Open initiates a multipart session for meta.
func (c *Client) Open(ctx context.Context, meta uploader.FileMetadata) (*uploader.Session, error) {
	var res initiateResponse
	err := c.doPOST(ctx, "/uploads/initiate", initiateRequest{
		FileName:    meta.Name,
		FileSize:    meta.Size,
		ContentType: meta.ContentType,
	}, &res)
	if err != nil {
		return nil, &uploader.NegotiationError{Phase: uploader.PhaseOpen, Err: err}
	}

	parts := make([]uploader.PartAddress, len(res.Parts))
	for i, p := range res.Parts {
		parts[i] = uploader.PartAddress{PartNumber: p.PartNumber, URL: p.URL}
	}
	return &uploader.Session{
		SessionID:     res.SessionID,
		ObjectKey:     res.ObjectKey,
		PartSize:      res.PartSize,
		Parts:         parts,
		FinalAssetURL: res.FileURL,
	}, nil
}

type completedPart struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}

type completeRequest struct {
	SessionID string          `json:"sessionId"`
	ObjectKey string          `json:"objectKey"`
	Parts     []completedPart `json:"parts"`
}

// CompleteResponse describes the assembled object.
type CompleteResponse struct {
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// Finalize completes the session. A tag the server cannot match against a
// stored part is reported as *uploader.IntegrityError.
func (c *Client) Finalize(ctx context.Context, sessionID, objectKey string, tags []uploader.PartTag) (string, error) {
	res, err := c.Complete(ctx, sessionID, objectKey, tags)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}

// Complete is Finalize with the full server response.
func (c *Client) Complete(ctx context.Context, sessionID, objectKey string, tags []uploader.PartTag) (*CompleteResponse, error) {
	parts := make([]completedPart, len(tags))
	for i, t := range tags {
		parts[i] = completedPart{PartNumber: t.PartNumber, ETag: t.Tag}
	}

	var res CompleteResponse
	err := c.doPOST(ctx, "/uploads/complete", completeRequest{
		SessionID: sessionID,
		ObjectKey: objectKey,
		Parts:     parts,
	}, &res)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == codeIntegrity {
			return nil, &uploader.IntegrityError{SessionID: sessionID, Err: err}
		}
		return nil, &uploader.NegotiationError{Phase: uploader.PhaseFinalize, SessionID: sessionID, Err: err}
	}
	return &res, nil
}

type abortRequest struct {
	SessionID string `json:"sessionId"`
	ObjectKey string `json:"objectKey"`
}

// Abort releases the session and its stored parts. Aborting twice is not an error.
func (c *Client) Abort(ctx context.Context, sessionID, objectKey string) error {
	if err := c.doPOST(ctx, "/uploads/abort", abortRequest{SessionID: sessionID, ObjectKey: objectKey}, nil); err != nil {
		return &uploader.NegotiationError{Phase: uploader.PhaseAbort, SessionID: sessionID, Err: err}
	}
	return nil
}

// Upload is an open session as reported by ListUploads.
type Upload struct {
	SessionID     string    `json:"sessionId"`
	ObjectKey     string    `json:"objectKey"`
	FileName      string    `json:"fileName"`
	FileSize      int64     `json:"fileSize"`
	PartSize      int64     `json:"partSize"`
	NumParts      int       `json:"numParts"`
	PartsReceived int       `json:"partsReceived"`
	CreatedAt     time.Time `json:"createdAt"`
}

// UploadPage is one page of open sessions. NextPage is zero on the last page.
type UploadPage struct {
	Uploads  []Upload
	Total    int64
	NextPage int32
}

type pageMeta struct {
	Limit    int32  `json:"limit"`
	Total    *int64 `json:"total"`
	Page     *int32 `json:"page"`
	NextPage *int32 `json:"next_page"`
}

type listResponse struct {
	Data       []Upload `json:"data"`
	Pagination pageMeta `json:"pagination"`
}

// ListUploads lists open sessions, oldest first. Zero page or limit uses the
// server default.
func (c *Client) ListUploads(ctx context.Context, page, limit int32) (*UploadPage, error) {
	query := map[string]string{}
	if page > 0 {
		query["page"] = strconv.Itoa(int(page))
	}
	if limit > 0 {
		query["limit"] = strconv.Itoa(int(limit))
	}

	var res listResponse
	if err := c.doGET(ctx, "/uploads", query, &res); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	out := &UploadPage{Uploads: res.Data}
	if res.Pagination.Total != nil {
		out.Total = *res.Pagination.Total
	}
	if res.Pagination.NextPage != nil {
		out.NextPage = *res.Pagination.NextPage
	}
	return out, nil
}
