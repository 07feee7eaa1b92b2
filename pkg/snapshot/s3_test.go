package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	verrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// fakeS3 keeps objects in memory, keyed by bucket and key.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fail    error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	id := aws.ToString(in.Bucket) + ":" + aws.ToString(in.Key)
	f.objects[id] = data
	f.types[id] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	data, ok := f.objects[aws.ToString(in.Bucket)+":"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+":"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := NewS3Store(client, "bucket", "trees/")

	if err := store.Save(ctx, "s/1", []byte("frame")); err != nil {
		t.Fatal(err)
	}
	if _, ok := client.objects["bucket:trees/s/1"]; !ok {
		t.Fatalf("object not stored under prefix: %v", client.objects)
	}
	if ct := client.types["bucket:trees/s/1"]; ct != contentType {
		t.Errorf("content type = %q", ct)
	}

	got, err := store.Load(ctx, "s/1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "frame" {
		t.Errorf("Load = %q", got)
	}

	if err := store.Delete(ctx, "s/1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, "s/1"); !verrors.Is(err, "E511") {
		t.Errorf("Load after Delete: err = %v, want E511", err)
	}
}

func TestS3StoreErrors(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	client.fail = errors.New("throttled")
	store := NewS3Store(client, "bucket", "")

	if err := store.Save(ctx, "k", nil); !errors.Is(err, client.fail) {
		t.Errorf("Save: %v", err)
	}
	_, err := store.Load(ctx, "k")
	if !errors.Is(err, client.fail) || verrors.Is(err, "E511") {
		t.Errorf("Load: %v", err)
	}
}

func TestS3StoreTrees(t *testing.T) {
	ctx := context.Background()
	store := NewS3Store(newFakeS3(), "bucket", "trees/")

	tree := vdom.Ul(vdom.Li("a"), vdom.Li("b"))
	if err := SaveTree(ctx, store, "s", 3, tree); err != nil {
		t.Fatal(err)
	}
	sf, err := LoadLatest(ctx, store, "s")
	if err != nil {
		t.Fatal(err)
	}
	if sf.Cycle != 3 || len(sf.Node.Children) != 2 {
		t.Errorf("loaded cycle %d with %d children", sf.Cycle, len(sf.Node.Children))
	}
}

var _ S3API = (*s3.Client)(nil)
