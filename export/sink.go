package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"mcsave/config"
)

// ErrExists is returned (wrapped) when output is already there and
// overwriting was not requested.
var ErrExists = errors.New("output already exists")

// Sink stores bundle files. Names are slash separated and relative to sink
// root.
type Sink interface {
	Put(ctx context.Context, name string, r io.Reader) error
	// Location returns human readable address of stored name.
	Location(name string) string
}

// NewSink returns S3 sink for "s3://bucket/prefix" destinations and local
// directory sink otherwise. Empty destination means current directory.
func NewSink(ctx context.Context, dest string, cfg *config.S3Config, overwrite bool, log *zap.Logger) (Sink, error) {
	if strings.HasPrefix(strings.ToLower(dest), "s3://") {
		return NewS3Sink(ctx, dest, cfg, overwrite, log)
	}
	if len(dest) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("unable to get working directory: %w", err)
		}
		dest = wd
	}
	return NewFSSink(dest, overwrite, log)
}

// FSSink writes into local directory.
type FSSink struct {
	root      string
	overwrite bool
	log       *zap.Logger
}

func NewFSSink(root string, overwrite bool, log *zap.Logger) (*FSSink, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &FSSink{root: abs, overwrite: overwrite, log: log}, nil
}

func (s *FSSink) Location(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func (s *FSSink) Put(ctx context.Context, name string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.Location(name)
	if _, err := os.Stat(target); err == nil {
		if !s.overwrite {
			return fmt.Errorf("%w: %s", ErrExists, target)
		}
		s.log.Warn("Overwriting existing file", zap.String("file", target))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("unable to write output file %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file %s: %w", target, err)
	}
	return nil
}

// S3Sink uploads into bucket under optional key prefix.
type S3Sink struct {
	client    *s3.Client
	uploader  *manager.Uploader
	bucket    string
	prefix    string
	overwrite bool
	log       *zap.Logger
}

func NewS3Sink(ctx context.Context, dest string, cfg *config.S3Config, overwrite bool, log *zap.Logger) (*S3Sink, error) {
	u, err := url.Parse(dest)
	if err != nil {
		return nil, fmt.Errorf("bad S3 destination %q: %w", dest, err)
	}
	if len(u.Host) == 0 {
		return nil, fmt.Errorf("bad S3 destination %q: bucket name is required", dest)
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if len(cfg.Region) > 0 {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if len(cfg.AccessKeyID) > 0 && len(cfg.SecretAccessKey.Value()) > 0 {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey.Value(), "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if len(cfg.Endpoint) > 0 {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Sink{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    u.Host,
		prefix:    strings.Trim(u.Path, "/"),
		overwrite: overwrite,
		log:       log,
	}, nil
}

func (s *S3Sink) key(name string) string {
	if len(s.prefix) == 0 {
		return name
	}
	return s.prefix + "/" + name
}

func (s *S3Sink) Location(name string) string {
	return "s3://" + s.bucket + "/" + s.key(name)
}

func (s *S3Sink) Put(ctx context.Context, name string, r io.Reader) error {
	key := s.key(name)

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	switch {
	case err == nil:
		if !s.overwrite {
			return fmt.Errorf("%w: %s", ErrExists, s.Location(name))
		}
		s.log.Warn("Overwriting existing object", zap.String("object", s.Location(name)))
	case isS3NotFound(err):
	default:
		return fmt.Errorf("failed to check object %s: %w", s.Location(name), err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if ct := mime.TypeByExtension(path.Ext(name)); len(ct) > 0 {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func isS3NotFound(err error) bool {
	var (
		notFound *types.NotFound
		noKey    *types.NoSuchKey
	)
	return errors.As(err, &notFound) || errors.As(err, &noKey)
}
