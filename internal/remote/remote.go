package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sethvargo/go-retry"

	"github.com/okeanos/obol/internal/model"
)

// ErrUnavailable means the remote store is configured but could not be
// reached. It is the only error Fetch/Put surface for network and auth
// failures; callers downgrade the sync pass to local-only and retry later.
var ErrUnavailable = errors.New("remote store unavailable")

// opTimeout bounds every remote call so a hung request cannot block the
// next scheduled sync pass.
const opTimeout = 10 * time.Second

// s3Client is the slice of the S3 API the store uses, as an interface for
// testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config holds S3-compatible storage configuration. Leaving Bucket or the
// credentials empty disables the remote store entirely; the application
// then runs single-device on the local store alone.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c Config) enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// ConnectivityCallback is invoked whenever the store's view of remote
// reachability changes. The family service records it in app state for
// display purposes.
type ConnectivityCallback func(connected bool)

// Store is a document store holding one serialized family record per
// family id in an S3-compatible bucket.
type Store struct {
	client   s3Client
	bucket   string
	logger   *slog.Logger
	callback ConnectivityCallback

	mu        sync.Mutex
	connected bool
}

// New creates a Store. With an incomplete config the store is permanently
// unavailable, which every caller already handles.
func New(cfg Config, callback ConnectivityCallback, logger *slog.Logger) *Store {
	s := &Store{
		bucket:   cfg.Bucket,
		logger:   logger,
		callback: callback,
	}
	if cfg.enabled() {
		s.client = newS3Client(cfg)
	}
	return s
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Available reports whether the store is configured with a client. It says
// nothing about reachability; that is what TestConnection is for.
func (s *Store) Available() bool {
	return s.client != nil
}

func recordKey(familyID string) string {
	return fmt.Sprintf("families/%s.json", familyID)
}

// Fetch returns the remote record for a family, (nil, nil) when no
// document exists or the document fails structural validation, and
// ErrUnavailable when the bucket cannot be reached.
func (s *Store) Fetch(ctx context.Context, familyID string) (*model.FamilyRecord, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var data []byte
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(recordKey(familyID)),
		})
		if err != nil {
			if isNotFound(err) {
				data = nil
				return nil
			}
			return retry.RetryableError(err)
		}
		defer out.Body.Close()
		data, err = io.ReadAll(out.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		s.setConnected(false)
		s.logger.Warn("remote fetch failed", "family_id", familyID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.setConnected(true)
	if data == nil {
		return nil, nil
	}

	rec, ok := model.Decode(data)
	if !ok {
		// A document we cannot adopt is the same as no document.
		s.logger.Warn("remote record failed validation", "family_id", familyID)
		return nil, nil
	}
	return rec, nil
}

// Put uploads the record as the family's remote document.
func (s *Store) Put(ctx context.Context, familyID string, rec *model.FamilyRecord) error {
	if !s.Available() {
		return ErrUnavailable
	}

	data, err := model.Encode(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err = retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(recordKey(familyID)),
			Body:          strings.NewReader(string(data)),
			ContentLength: aws.Int64(int64(len(data))),
			ContentType:   aws.String("application/json"),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		s.setConnected(false)
		s.logger.Warn("remote put failed", "family_id", familyID, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.setConnected(true)
	return nil
}

// TestConnection distinguishes "configured but unreachable" from
// "reachable" with a cheap probe write.
func (s *Store) TestConnection(ctx context.Context) bool {
	if !s.Available() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String("probe/connection"),
		Body:          strings.NewReader("ok"),
		ContentLength: aws.Int64(2),
	})
	s.setConnected(err == nil)
	return err == nil
}

func (s *Store) backoff() retry.Backoff {
	return retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
}

// setConnected records connectivity transitions and notifies the callback
// only on change.
func (s *Store) setConnected(connected bool) {
	s.mu.Lock()
	changed := s.connected != connected
	s.connected = connected
	s.mu.Unlock()

	if changed && s.callback != nil {
		s.callback(connected)
	}
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	return errors.As(err, &noKey)
}
