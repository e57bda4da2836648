package s3

import (
	"context"
	"errors"
	"fmt"
	"folio/internal/source"
	fssource "folio/internal/source/fs"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"io"
	"path"
	"sort"
	"strings"
)

type Options struct {
	Endpoint   string
	Bucket     string
	Prefix     string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Extensions []string
}

// objects is the slice of bucket behaviour the source needs.
type objects interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Read(ctx context.Context, key string) ([]byte, error)
}

var errNoSuchKey = errors.New("no such key")

// Source reads content units stored as objects directly under a prefix.
type Source struct {
	store  objects
	prefix string
	exts   []string
}

func New(opt Options) (*Source, error) {
	if strings.TrimSpace(opt.Endpoint) == "" || strings.TrimSpace(opt.Bucket) == "" {
		return nil, errors.New("s3 source: endpoint and bucket are required")
	}
	client, err := minio.New(opt.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opt.AccessKey, opt.SecretKey, ""),
		Secure: opt.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 source: %w", err)
	}
	return newSource(&minioObjects{client: client, bucket: opt.Bucket}, opt.Prefix, opt.Extensions), nil
}

func newSource(store objects, prefix string, exts []string) *Source {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Source{store: store, prefix: prefix, exts: fssource.NormalizeExtensions(exts)}
}

func (s *Source) idFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, s.prefix)
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	ext := path.Ext(rest)
	for _, e := range s.exts {
		if ext == e {
			return strings.TrimSuffix(rest, ext), true
		}
	}
	return "", false
}

func (s *Source) Enumerate(ctx context.Context) ([]source.Unit, error) {
	keys, err := s.store.List(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("s3 source: list: %w", err)
	}
	type object struct{ id, key string }
	var objs []object
	for _, key := range keys {
		if id, ok := s.idFromKey(key); ok {
			objs = append(objs, object{id: id, key: key})
		}
	}
	sort.Slice(objs, func(i, j int) bool {
		if objs[i].id != objs[j].id {
			return objs[i].id < objs[j].id
		}
		return objs[i].key < objs[j].key
	})

	var out []source.Unit
	for _, o := range objs {
		raw, err := s.store.Read(ctx, o.key)
		if errors.Is(err, errNoSuchKey) {
			// removed between list and read
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("s3 source: read %s: %w", o.key, err)
		}
		out = append(out, parse(o.id, raw))
	}
	return out, nil
}

func (s *Source) Load(ctx context.Context, id string) (source.Unit, error) {
	if !source.ValidID(id) {
		return source.Unit{}, source.ErrNotFound
	}
	for _, ext := range s.exts {
		key := s.prefix + id + ext
		raw, err := s.store.Read(ctx, key)
		if errors.Is(err, errNoSuchKey) {
			continue
		}
		if err != nil {
			return source.Unit{}, fmt.Errorf("s3 source: read %s: %w", key, err)
		}
		return parse(id, raw), nil
	}
	return source.Unit{}, source.ErrNotFound
}

func parse(id string, raw []byte) source.Unit {
	u, err := source.ParseDocument(id, raw)
	if err != nil {
		return source.Unit{ID: id, Err: err, Hash: source.HashBytes(raw)}
	}
	return u
}

type minioObjects struct {
	client *minio.Client
	bucket string
}

func (m *minioObjects) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (m *minioObjects) Read(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapErr(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapErr(err)
	}
	return data, nil
}

func mapErr(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return errNoSuchKey
	}
	return err
}
