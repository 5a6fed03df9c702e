package scenario

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/arrive/internal/config"
	"github.com/vango-dev/arrive/internal/errors"
)

type fakeS3 struct {
	objects map[string]string
	gotKey  string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.gotKey = key
	body, ok := f.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestLoaderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.yaml")
	if err := os.WriteFile(path, []byte(listScenario), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := (&Loader{}).Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "list" {
		t.Errorf("Name = %q", sc.Name)
	}

	_, err = (&Loader{}).Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.HasCode(err, "A204") {
		t.Errorf("Load(missing) error = %v, want A204", err)
	}
}

func TestLoaderErrorLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("document: x\nsteps:\n  - explode: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := (&Loader{}).Load(context.Background(), path)
	ae := errors.FromError(err, "")
	if ae == nil || ae.Location == nil || ae.Location.File != path {
		t.Errorf("error = %v, want location in %s", err, path)
	}
}

func TestLoaderS3(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"bucket/scenarios/list.yaml": listScenario}}
	l := &Loader{S3: fake}

	sc, err := l.Load(context.Background(), "s3://bucket/scenarios/list.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if fake.gotKey != "bucket/scenarios/list.yaml" || sc.Name != "list" {
		t.Errorf("key = %q, scenario = %q", fake.gotKey, sc.Name)
	}

	tests := []struct {
		name   string
		loader *Loader
		uri    string
	}{
		{"missing object", l, "s3://bucket/nope.yaml"},
		{"no key", l, "s3://bucket"},
		{"no client", &Loader{}, "s3://bucket/scenarios/list.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.loader.Load(context.Background(), tt.uri); !errors.HasCode(err, "A204") {
				t.Errorf("Load() error = %v, want A204", err)
			}
		})
	}
}

func TestNewS3Client(t *testing.T) {
	client := NewS3Client(config.S3Config{Region: "eu-west-1", Endpoint: "http://localhost:9000"})
	opts := client.Options()
	if opts.Region != "eu-west-1" {
		t.Errorf("Region = %q", opts.Region)
	}
	if aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" || !opts.UsePathStyle {
		t.Errorf("BaseEndpoint = %q, UsePathStyle = %v", aws.ToString(opts.BaseEndpoint), opts.UsePathStyle)
	}
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	if _, err := envCredentials(context.Background()); !errors.HasCode(err, "A204") {
		t.Errorf("envCredentials() error = %v, want A204", err)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	creds, err := envCredentials(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "id" || creds.SecretAccessKey != "secret" {
		t.Errorf("creds = %+v", creds)
	}
}
