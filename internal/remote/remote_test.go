package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/okeanos/obol/internal/model"
)

// fakeS3 is an in-memory s3Client. Setting fail makes every call return a
// transport error.
type fakeS3 struct {
	objects map[string][]byte
	fail    bool
	puts    int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.fail {
		return nil, errors.New("connection refused")
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*input.Key] = data
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.fail {
		return nil, errors.New("connection refused")
	}
	data, ok := f.objects[*input.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func testStore(t *testing.T, client s3Client) *Store {
	t.Helper()
	return &Store{
		client: client,
		bucket: "test-bucket",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestPutFetchRoundTrip(t *testing.T) {
	fake := newFakeS3()
	s := testStore(t, fake)

	rec := model.DefaultRecord(time.Now())
	if err := s.Put(context.Background(), "fam-1", rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Fetch(context.Background(), "fam-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got == nil {
		t.Fatal("fetch returned absent for stored document")
	}
	if !model.Equal(rec, got) {
		t.Error("fetched record differs from stored record")
	}
}

func TestFetchMissingDocument(t *testing.T) {
	s := testStore(t, newFakeS3())

	got, err := s.Fetch(context.Background(), "fam-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != nil {
		t.Errorf("fetch of missing document = %+v, want nil", got)
	}
}

func TestFetchInvalidDocument(t *testing.T) {
	fake := newFakeS3()
	fake.objects["families/fam-1.json"] = []byte(`{"balance": "7.00"}`)
	s := testStore(t, fake)

	got, err := s.Fetch(context.Background(), "fam-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != nil {
		t.Errorf("structurally invalid document adopted: %+v", got)
	}
}

func TestUnreachableRemote(t *testing.T) {
	fake := newFakeS3()
	fake.fail = true
	s := testStore(t, fake)

	if _, err := s.Fetch(context.Background(), "fam-1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("fetch error = %v, want ErrUnavailable", err)
	}
	if err := s.Put(context.Background(), "fam-1", model.DefaultRecord(time.Now())); !errors.Is(err, ErrUnavailable) {
		t.Errorf("put error = %v, want ErrUnavailable", err)
	}
}

func TestUnconfiguredStore(t *testing.T) {
	s := New(Config{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if s.Available() {
		t.Error("unconfigured store reports available")
	}
	if _, err := s.Fetch(context.Background(), "fam-1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("fetch error = %v, want ErrUnavailable", err)
	}
	if s.TestConnection(context.Background()) {
		t.Error("TestConnection = true for unconfigured store")
	}
}

func TestConnectivityCallbackOnChange(t *testing.T) {
	fake := newFakeS3()
	var calls []bool
	s := testStore(t, fake)
	s.callback = func(connected bool) { calls = append(calls, connected) }

	if !s.TestConnection(context.Background()) {
		t.Fatal("probe against healthy fake failed")
	}
	s.TestConnection(context.Background()) // no transition, no callback

	fake.fail = true
	if s.TestConnection(context.Background()) {
		t.Fatal("probe against failing fake succeeded")
	}

	want := []bool{true, false}
	if len(calls) != len(want) {
		t.Fatalf("callback calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, calls[i], want[i])
		}
	}
}
