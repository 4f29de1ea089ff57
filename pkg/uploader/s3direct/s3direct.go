// Package s3direct negotiates multipart sessions straight against S3. Part
// addresses are presigned UploadPart URLs, so part bytes never pass through a
// tubeup server.
package s3direct

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/beanbocchi/tubeup/internal/utils/objectkey"
	"github.com/beanbocchi/tubeup/pkg/uploader"
)

const DefaultPartURLTTL = time.Hour

// API is the subset of *s3.Client the negotiator calls.
type API interface {
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// Presigner is the subset of *s3.PresignClient the negotiator calls.
type Presigner interface {
	PresignUploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	_ API       = (*s3.Client)(nil)
	_ Presigner = (*s3.PresignClient)(nil)
)

type Config struct {
	Bucket    string
	KeyPrefix string
	Region    string
	// PublicBaseURL, when set, is joined with the object key to form the asset
	// URL. Otherwise the location S3 reports is used.
	PublicBaseURL string
	PartURLTTL    time.Duration
	MinPartSize   int64
	MaxParts      int
}

// Negotiator implements uploader.Negotiator on top of S3 multipart uploads.
type Negotiator struct {
	api       API
	presigner Presigner
	cfg       Config
	now       func() time.Time
}

var _ uploader.Negotiator = (*Negotiator)(nil)

func New(api API, presigner Presigner, cfg Config) (*Negotiator, error) {
	if api == nil || presigner == nil {
		return nil, fmt.Errorf("s3 client and presigner are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if cfg.PartURLTTL <= 0 {
		cfg.PartURLTTL = DefaultPartURLTTL
	}
	if cfg.MinPartSize <= 0 {
		cfg.MinPartSize = uploader.MinPartSize
	}
	if cfg.MaxParts <= 0 || cfg.MaxParts > uploader.MaxParts {
		cfg.MaxParts = uploader.MaxParts
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	return &Negotiator{api: api, presigner: presigner, cfg: cfg, now: time.Now}, nil
}

// NewFromConfig builds the S3 clients from the default AWS credential chain.
func NewFromConfig(ctx context.Context, cfg Config) (*Negotiator, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return New(client, s3.NewPresignClient(client), cfg)
}

func (n *Negotiator) Open(ctx context.Context, meta uploader.FileMetadata) (*uploader.Session, error) {
	partSize, err := uploader.PartSizeFor(meta.Size, n.cfg.MinPartSize, n.cfg.MaxParts)
	if err != nil {
		return nil, &uploader.NegotiationError{Phase: uploader.PhaseOpen, Err: err}
	}
	count := uploader.PartCount(meta.Size, partSize)

	key := objectkey.New(n.cfg.KeyPrefix, meta.Name, n.now())
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(n.cfg.Bucket),
		Key:    aws.String(key),
	}
	if meta.ContentType != "" {
		input.ContentType = aws.String(meta.ContentType)
	}

	out, err := n.api.CreateMultipartUpload(ctx, input)
	if err != nil {
		return nil, &uploader.NegotiationError{Phase: uploader.PhaseOpen, Err: fmt.Errorf("create multipart upload: %w", err)}
	}
	uploadID := aws.ToString(out.UploadId)

	parts := make([]uploader.PartAddress, count)
	for i := range parts {
		req, err := n.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(n.cfg.Bucket),
			Key:        aws.String(key),
			UploadId:   aws.String(uploadID),
			PartNumber: aws.Int32(int32(i + 1)),
		}, s3.WithPresignExpires(n.cfg.PartURLTTL))
		if err != nil {
			abortErr := n.Abort(context.WithoutCancel(ctx), uploadID, key)
			return nil, &uploader.NegotiationError{
				Phase:     uploader.PhaseOpen,
				SessionID: uploadID,
				Err:       errors.Join(fmt.Errorf("presign part %d: %w", i+1, err), abortErr),
			}
		}
		parts[i] = uploader.PartAddress{PartNumber: i + 1, URL: req.URL}
	}

	return &uploader.Session{
		SessionID:     uploadID,
		ObjectKey:     key,
		PartSize:      partSize,
		Parts:         parts,
		FinalAssetURL: n.assetURL(key, ""),
	}, nil
}

func (n *Negotiator) Finalize(ctx context.Context, sessionID, objectKey string, tags []uploader.PartTag) (string, error) {
	completed := make([]types.CompletedPart, len(tags))
	for i, t := range tags {
		completed[i] = types.CompletedPart{
			ETag:       aws.String(t.Tag),
			PartNumber: aws.Int32(int32(t.PartNumber)),
		}
	}

	out, err := n.api.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(n.cfg.Bucket),
		Key:             aws.String(objectKey),
		UploadId:        aws.String(sessionID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		switch errorCode(err) {
		case "InvalidPart", "InvalidPartOrder", "EntityTooSmall":
			return "", &uploader.IntegrityError{SessionID: sessionID, Err: err}
		}
		return "", &uploader.NegotiationError{Phase: uploader.PhaseFinalize, SessionID: sessionID, Err: err}
	}

	return n.assetURL(objectKey, aws.ToString(out.Location)), nil
}

// Abort treats an upload S3 no longer knows as already aborted.
func (n *Negotiator) Abort(ctx context.Context, sessionID, objectKey string) error {
	_, err := n.api.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(n.cfg.Bucket),
		Key:      aws.String(objectKey),
		UploadId: aws.String(sessionID),
	})
	if err != nil && errorCode(err) != "NoSuchUpload" {
		return &uploader.NegotiationError{Phase: uploader.PhaseAbort, SessionID: sessionID, Err: err}
	}
	return nil
}

func (n *Negotiator) assetURL(key, location string) string {
	if n.cfg.PublicBaseURL != "" {
		return n.cfg.PublicBaseURL + "/" + key
	}
	if location != "" {
		return location
	}
	return fmt.Sprintf("s3://%s/%s", n.cfg.Bucket, key)
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
