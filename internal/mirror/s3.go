package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awss3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/conn-castle/moonbit-up/internal/messages"
	"github.com/conn-castle/moonbit-up/internal/release"
)

// checksumMetadataKey is the object metadata entry holding an artifact's sha256.
const checksumMetadataKey = "sha256"

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

// S3Store is a mirror under an S3 bucket prefix. It has no writer lock, so
// concurrent writers to the same prefix are last-writer-wins.
type S3Store struct {
	Client S3API
	Bucket string
	Prefix string
}

// IsS3Location reports whether location is an s3:// URL.
func IsS3Location(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

// ParseS3Location splits s3://bucket/prefix into bucket and prefix.
func ParseS3Location(location string) (string, string, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf(messages.MirrorInvalidS3URLFmt, location)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// NewS3Store builds a store for location using the default AWS credential
// chain. A non-empty endpoint targets an S3-compatible service with
// path-style addressing.
func NewS3Store(ctx context.Context, location string, endpoint string) (*S3Store, error) {
	bucket, prefix, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf(messages.MirrorLoadAWSConfigFmt, err)
	}
	if endpoint != "" && cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

func (s *S3Store) key(rel string) string {
	if s.Prefix == "" {
		return rel
	}
	return path.Join(s.Prefix, rel)
}

// Location returns the s3:// URL of the mirror.
func (s *S3Store) Location() string {
	return "s3://" + path.Join(s.Bucket, s.Prefix)
}

func isNotFound(err error) bool {
	var noSuchKey *awss3types.NoSuchKey
	var notFound *awss3types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

// ReadIndex fetches <prefix>/index.json.
func (s *S3Store) ReadIndex(ctx context.Context) (release.Index, bool, error) {
	key := s.key(IndexFile)
	out, err := s.Client.GetObject(ctx, &awss3.GetObjectInput{Bucket: &s.Bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf(messages.MirrorS3GetFmt, s.Bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf(messages.MirrorS3GetFmt, s.Bucket, key, err)
	}
	idx, err := release.Decode(data, s.Location()+"/"+IndexFile)
	if err != nil {
		return nil, false, err
	}
	return idx, true, nil
}

// WriteIndex uploads the index in a single PutObject.
func (s *S3Store) WriteIndex(ctx context.Context, idx release.Index) error {
	data, err := release.Encode(idx)
	if err != nil {
		return err
	}
	key := s.key(IndexFile)
	_, err = s.Client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      &s.Bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf(messages.MirrorS3PutFmt, s.Bucket, key, err)
	}
	return nil
}

// HasArtifact compares the checksum recorded in the object's metadata.
func (s *S3Store) HasArtifact(ctx context.Context, version string, name string, sha256 string) (bool, error) {
	key := s.key(ArtifactKey(version, name))
	out, err := s.Client.HeadObject(ctx, &awss3.HeadObjectInput{Bucket: &s.Bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf(messages.MirrorS3HeadFmt, s.Bucket, key, err)
	}
	if sha256 == "" {
		return aws.ToInt64(out.ContentLength) > 0, nil
	}
	return strings.EqualFold(out.Metadata[checksumMetadataKey], sha256), nil
}

// PutArtifact uploads src and records its checksum as object metadata.
func (s *S3Store) PutArtifact(ctx context.Context, version string, name string, src string, sha256 string) error {
	key := s.key(ArtifactKey(version, name))
	file, err := os.Open(src)
	if err != nil {
		return fmt.Errorf(messages.MirrorStoreArtifactFmt, key, err)
	}
	defer func() { _ = file.Close() }()
	if sha256 == "" {
		if sha256, err = release.ReaderSHA256(file, src); err != nil {
			return err
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf(messages.MirrorStoreArtifactFmt, key, err)
		}
	}
	_, err = s.Client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:   &s.Bucket,
		Key:      &key,
		Body:     file,
		Metadata: map[string]string{checksumMetadataKey: strings.ToLower(sha256)},
	})
	if err != nil {
		return fmt.Errorf(messages.MirrorS3PutFmt, s.Bucket, key, err)
	}
	return os.Remove(src)
}

// Open streams an object under the prefix.
func (s *S3Store) Open(ctx context.Context, rel string) (io.ReadCloser, int64, error) {
	key := s.key(strings.TrimPrefix(path.Clean("/"+rel), "/"))
	out, err := s.Client.GetObject(ctx, &awss3.GetObjectInput{Bucket: &s.Bucket, Key: &key})
	if err != nil {
		return nil, 0, fmt.Errorf(messages.MirrorS3GetFmt, s.Bucket, key, err)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

// Usage sums object sizes under the prefix.
func (s *S3Store) Usage(ctx context.Context) (int64, error) {
	prefix := s.Prefix
	if prefix != "" {
		prefix += "/"
	}
	var total int64
	var token *string
	for {
		out, err := s.Client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
			Bucket:            &s.Bucket,
			Prefix:            &prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return 0, fmt.Errorf(messages.MirrorS3ListFmt, s.Bucket, prefix, err)
		}
		for _, object := range out.Contents {
			total += aws.ToInt64(object.Size)
		}
		if !aws.ToBool(out.IsTruncated) {
			return total, nil
		}
		token = out.NextContinuationToken
	}
}

// Lock runs fn directly.
func (s *S3Store) Lock(_ context.Context, fn func() error) error {
	return fn()
}

// OpenStore returns an S3Store for s3:// locations and an FSStore otherwise.
func OpenStore(ctx context.Context, location string, s3Endpoint string) (Store, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New(messages.MirrorLocationRequired)
	}
	if IsS3Location(location) {
		return NewS3Store(ctx, location, s3Endpoint)
	}
	return NewFSStore(location), nil
}
