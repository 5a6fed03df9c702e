package scenario

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/arrive/internal/config"
	"github.com/vango-dev/arrive/internal/errors"
)

// ObjectGetter is the part of the S3 client the loader needs.
// *s3.Client satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader reads scenarios from local files or s3://bucket/key URIs.
type Loader struct {
	// S3 fetches s3:// URIs. Nil disables them.
	S3 ObjectGetter
}

// Load reads and parses the scenario at uri. "-" reads standard input.
func (l *Loader) Load(ctx context.Context, uri string) (*Scenario, error) {
	rc, err := l.open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	sc, err := Decode(rc)
	if err != nil {
		if ae := errors.FromError(err, "A200"); ae.Location != nil && ae.Location.File == "" {
			ae.Location.File = uri
		}
		return nil, err
	}
	return sc, nil
}

func (l *Loader) open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if uri == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	if !strings.HasPrefix(uri, "s3://") {
		f, err := os.Open(uri)
		if err != nil {
			return nil, errors.New("A204").WithDetail(uri).Wrap(err)
		}
		return f, nil
	}

	if l.S3 == nil {
		return nil, errors.New("A204").
			WithDetail(uri).
			WithSuggestion("Configure the s3 section to load scenarios from S3")
	}
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}
	out, err := l.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("A204").WithDetail(uri).Wrap(err)
	}
	return out.Body, nil
}

func parseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", errors.New("A204").WithDetail(uri).Wrap(err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", errors.New("A204").
			WithDetail(uri).
			WithSuggestion("Use s3://bucket/key")
	}
	return u.Host, key, nil
}

// NewS3Client builds an S3 client from cfg. Credentials come from the
// standard AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN
// variables.
func NewS3Client(cfg config.S3Config) *s3.Client {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, errors.New("A204").
			WithDetail("AWS credentials not set").
			WithSuggestion("Set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")
	}
	return creds, nil
}
