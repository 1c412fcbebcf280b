package s3sink_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/xraph/faktura/ledgerexport/s3sink"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	data, _ := io.ReadAll(in.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, f.err
}

func TestPut(t *testing.T) {
	fake := &fakeS3{}
	sink := s3sink.NewWithClient(fake, "books", "exports/acme")

	loc, err := sink.Put(context.Background(), "batch.csv", []byte("\"EXTF\"\n"))
	if err != nil {
		t.Fatal(err)
	}

	key := aws.ToString(fake.input.Key)
	if !strings.HasPrefix(key, "exports/acme/") || !strings.HasSuffix(key, "_batch.csv") {
		t.Errorf("unexpected key %q", key)
	}
	if aws.ToString(fake.input.Bucket) != "books" {
		t.Errorf("bucket: got %q", aws.ToString(fake.input.Bucket))
	}
	if loc != "s3://books/"+key {
		t.Errorf("location: got %q", loc)
	}
	if fake.body != "\"EXTF\"\n" {
		t.Errorf("body: got %q", fake.body)
	}
}

func TestPutError(t *testing.T) {
	boom := errors.New("denied")
	sink := s3sink.NewWithClient(&fakeS3{err: boom}, "books", "")

	if _, err := sink.Put(context.Background(), "batch.csv", nil); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := s3sink.New(context.Background(), s3sink.Config{}); err == nil {
		t.Error("expected error without bucket")
	}
}
