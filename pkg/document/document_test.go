package document

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/observer/pkg/effect"
	"github.com/vango-dev/observer/pkg/observer"
)

const sampleJSON = `{
  "title": "todo",
  "count": 2,
  "ratio": 0.5,
  "done": false,
  "owner": null,
  "items": [
    {"name": "a", "tags": ["x"]},
    {"name": "b", "tags": []}
  ]
}`

const sampleYAML = `title: todo
count: 2
ratio: 0.5
done: false
owner: null
items:
  - name: a
    tags: [x]
  - name: b
    tags: []
`

func checkSample(t *testing.T, v any) {
	t.Helper()
	root, ok := v.(*observer.Object)
	if !ok {
		t.Fatalf("root is %T, want *observer.Object", v)
	}

	want := []string{"title", "count", "ratio", "done", "owner", "items"}
	if got := root.Keys(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if root.Get("count") != 2 {
		t.Errorf("count = %#v, want int 2", root.Get("count"))
	}
	if root.Get("ratio") != 0.5 {
		t.Errorf("ratio = %#v, want 0.5", root.Get("ratio"))
	}
	if root.Get("done") != false {
		t.Errorf("done = %#v", root.Get("done"))
	}
	if !root.HasOwn("owner") || root.Get("owner") != nil {
		t.Errorf("owner should be present and nil")
	}

	items, ok := root.Get("items").(*observer.Array)
	if !ok || items.Len() != 2 {
		t.Fatalf("items = %v", root.Get("items"))
	}
	first := items.Index(0).(*observer.Object)
	if first.Get("name") != "a" {
		t.Errorf("items[0].name = %v", first.Get("name"))
	}
	if tags := items.Index(1).(*observer.Object).Get("tags").(*observer.Array); tags.Len() != 0 {
		t.Errorf("items[1].tags should be empty, got %v", tags)
	}
}

func TestDecodeJSON(t *testing.T) {
	v, err := Decode([]byte(sampleJSON), JSON)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	checkSample(t, v)
}

func TestDecodeYAML(t *testing.T) {
	v, err := Decode([]byte(sampleYAML), YAML)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	checkSample(t, v)
}

func TestDecodeScalarsAndErrors(t *testing.T) {
	v, err := DecodeJSON([]byte(`12345678901234567890`))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(float64); !ok {
		t.Errorf("oversized integer should decode as float64, got %T", v)
	}

	if _, err := DecodeJSON([]byte(`{"a": 1} {"b": 2}`)); err == nil {
		t.Error("expected error for trailing data")
	}
	if _, err := DecodeJSON([]byte(`{"a": `)); err == nil {
		t.Error("expected error for truncated JSON")
	}
	if _, err := DecodeYAML([]byte("a: [1, 2")); err == nil {
		t.Error("expected error for invalid YAML")
	}

	v, err = DecodeYAML(nil)
	if err != nil || v != nil {
		t.Errorf("empty YAML should decode to nil, got %v, %v", v, err)
	}
}

func TestDecodeYAMLAlias(t *testing.T) {
	v, err := DecodeYAML([]byte("base: &b {x: 1}\ncopy: *b\n"))
	if err != nil {
		t.Fatal(err)
	}
	root := v.(*observer.Object)
	base := root.Get("base").(*observer.Object)
	cp := root.Get("copy").(*observer.Object)
	if base == cp {
		t.Error("aliases should decode to distinct objects")
	}
	if cp.Get("x") != 1 {
		t.Errorf("copy.x = %v", cp.Get("x"))
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, format := range []Format{JSON, YAML} {
		t.Run(format.String(), func(t *testing.T) {
			v, err := Decode([]byte(sampleJSON), JSON)
			if err != nil {
				t.Fatal(err)
			}
			observer.Observe(v, true)

			data, err := Encode(v, format)
			if err != nil {
				t.Fatalf("Encode error: %v", err)
			}
			back, err := Decode(data, format)
			if err != nil {
				t.Fatalf("Decode error: %v\n%s", err, data)
			}
			checkSample(t, back)
		})
	}
}

func TestEncodeJSONKeepsOrder(t *testing.T) {
	obj := observer.NewObject()
	obj.Set("z", 1)
	obj.Set("a", math.NaN())
	obj.Set("m", observer.NewArray("s", nil))

	data, err := EncodeJSON(obj)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"z\": 1,\n  \"a\": null,\n  \"m\": [\n    \"s\",\n    null\n  ]\n}\n"
	if string(data) != want {
		t.Errorf("EncodeJSON =\n%s\nwant\n%s", data, want)
	}
}

func TestEncodeErrors(t *testing.T) {
	obj := observer.NewObject()
	obj.Set("fn", func() {})
	if _, err := EncodeJSON(obj); !errors.Is(err, ErrUnsupportedValue) {
		t.Errorf("EncodeJSON func: got %v", err)
	}
	if _, err := EncodeYAML(obj); !errors.Is(err, ErrUnsupportedValue) {
		t.Errorf("EncodeYAML func: got %v", err)
	}

	self := observer.NewObject()
	self.Set("self", self)
	if _, err := EncodeJSON(self); err == nil {
		t.Error("expected cycle error")
	}
	if _, err := EncodeYAML(self); err == nil {
		t.Error("expected cycle error")
	}
}

func TestEncodeDoesNotTrack(t *testing.T) {
	v, _ := DecodeJSON([]byte(sampleJSON))
	observer.Observe(v, false)

	e := effect.NewEffect(func() effect.Cleanup {
		EncodeJSON(v)
		return nil
	})
	defer e.Stop()

	if n := len(e.Deps()); n != 0 {
		t.Errorf("encoding should not register dependencies, got %d", n)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"a", "a"},
		{"a.b.c", "a,b,c"},
		{"items[2].name", "items,2,name"},
		{"items.2.name", "items,2,name"},
		{"a..b", "a,b"},
	}
	for _, tt := range tests {
		if got := strings.Join(Split(tt.path), ","); got != tt.want {
			t.Errorf("Split(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestGet(t *testing.T) {
	v, _ := DecodeJSON([]byte(sampleJSON))

	tests := []struct {
		path string
		want any
	}{
		{"title", "todo"},
		{"items.0.name", "a"},
		{"items[1].name", "b"},
		{"items.0.tags.0", "x"},
		{"items.length", 2},
		{"owner", nil},
	}
	for _, tt := range tests {
		got, err := Get(v, tt.path)
		if err != nil {
			t.Errorf("Get(%q) error: %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Get(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	if got, _ := Get(v, ""); got != v {
		t.Error("empty path should yield root")
	}

	for _, path := range []string{"missing", "items.9", "items.-1", "items.x", "title.length", "owner.x"} {
		if _, err := Get(v, path); !errors.Is(err, ErrPathNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrPathNotFound", path, err)
		}
	}
}

func TestGetTracksEveryStep(t *testing.T) {
	v, _ := DecodeJSON([]byte(sampleJSON))
	observer.Observe(v, true)

	var name any
	e := effect.NewEffect(func() effect.Cleanup {
		name, _ = Get(v, "items.0.name")
		return nil
	})
	defer e.Stop()

	items, _ := Get(v, "items")
	first := items.(*observer.Array).Index(0).(*observer.Object)
	first.Set("name", "renamed")
	if name != "renamed" {
		t.Errorf("leaf change: name = %v", name)
	}

	fresh := observer.NewObject()
	fresh.Set("name", "new")
	observer.Set(items, 0, fresh)
	if name != "new" {
		t.Errorf("element replacement: name = %v", name)
	}
}

func TestResolve(t *testing.T) {
	v, _ := DecodeJSON([]byte(sampleJSON))

	c, key, err := Resolve(v, "items.1.name")
	if err != nil {
		t.Fatal(err)
	}
	if key != "name" || c.(*observer.Object).Get("name") != "b" {
		t.Errorf("Resolve = %v, %q", c, key)
	}

	if _, _, err := Resolve(v, ""); !errors.Is(err, ErrPathNotFound) {
		t.Errorf("empty path: %v", err)
	}
	if _, _, err := Resolve(v, "title.x"); !errors.Is(err, ErrPathNotFound) {
		t.Errorf("scalar parent: %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	if FormatFromPath("a/b.YAML") != YAML || FormatFromPath("x.yml") != YAML {
		t.Error("yaml extensions")
	}
	if FormatFromPath("x.json") != JSON || FormatFromPath("x") != JSON {
		t.Error("json default")
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	if err := store.Save(ctx, "nested/state.json", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	data, err := store.Load(ctx, "nested/state.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("Load = %q", data)
	}

	abs := filepath.Join(dir, "nested", "state.json")
	v, err := Load(ctx, abs, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.(*observer.Object).Get("a") != 1 {
		t.Errorf("Load(abs) = %v", v)
	}
	if _, err := Load(ctx, "file://"+abs, nil); err != nil {
		t.Errorf("file:// source: %v", err)
	}
}

// fakeS3 keeps objects in memory.
type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	k := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[k] = data
	f.types[k] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, "bucket", "states/")
	ctx := context.Background()

	if err := store.Save(ctx, "one.yaml", []byte(sampleYAML)); err != nil {
		t.Fatal(err)
	}
	if client.types["bucket/states/one.yaml"] != "application/yaml" {
		t.Errorf("content type = %q", client.types["bucket/states/one.yaml"])
	}

	client.objects["bucket/doc.yaml"] = []byte(sampleYAML)
	v, err := Load(ctx, "s3://bucket/doc.yaml", client)
	if err != nil {
		t.Fatal(err)
	}
	checkSample(t, v)

	if _, err := store.Load(ctx, "missing.json"); err == nil {
		t.Error("expected error for missing object")
	}
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		source string
		client S3API
	}{
		{"s3://bucket/key.json", nil},
		{"s3://bucket", newFakeS3()},
		{"s3:///key", newFakeS3()},
		{"gs://bucket/key", nil},
		{"http://host/doc.json", nil},
	}
	for _, tt := range tests {
		if _, _, err := Open(tt.source, tt.client); !errors.Is(err, ErrUnsupportedSource) {
			t.Errorf("Open(%q) error = %v, want ErrUnsupportedSource", tt.source, err)
		}
	}
}

func TestNewS3Client(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_REGION", "")

	c := NewS3Client(S3Options{Endpoint: "http://localhost:9000"})
	opts := c.Options()
	if opts.Region != "us-east-1" {
		t.Errorf("Region = %q", opts.Region)
	}
	if !opts.UsePathStyle || aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" {
		t.Errorf("endpoint options not applied: %+v", opts.BaseEndpoint)
	}
	// s3.New resolves anonymous credentials to nil, which also skips signing.
	switch opts.Credentials.(type) {
	case nil, aws.AnonymousCredentials:
	default:
		t.Errorf("Credentials = %T, want anonymous", opts.Credentials)
	}
	if _, ok := envCredentials().(aws.AnonymousCredentials); !ok {
		t.Errorf("envCredentials() = %T without AWS_ACCESS_KEY_ID, want anonymous", envCredentials())
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	creds, err := NewS3Client(S3Options{Region: "eu-west-1"}).Options().Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "id" || creds.SecretAccessKey != "secret" {
		t.Errorf("creds = %+v", creds)
	}
}
