package storage

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"puzzle2profit/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectAPI ist der Teil des S3-Clients, den das Archiv nutzt.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewS3Client erstellt einen S3-Client für einen S3-kompatiblen Endpoint
// (Path-Style, feste Region).
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3Key, cfg.S3Secret, "")),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	}), nil
}

// Object ist ein Eintrag im Archiv.
type Object struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// Archive legt Exportdokumente in einem Bucket ab.
type Archive struct {
	client  objectAPI
	bucket  string
	baseURL string
}

// NewArchive erstellt ein Archiv aus der Konfiguration.
func NewArchive(ctx context.Context, cfg *config.Config) (*Archive, error) {
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating s3 client: %w", err)
	}
	return &Archive{client: client, bucket: cfg.S3Bucket, baseURL: cfg.S3URL}, nil
}

// Upload lädt ein Dokument hoch und gibt den Link zurück.
func (a *Archive) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(a.baseURL, "/"), a.bucket, key), nil
}

// List gibt alle Objekte unter prefix zurück, neueste zuerst.
func (a *Archive) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	p := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			o := Object{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				o.LastModified = *obj.LastModified
			}
			objects = append(objects, o)
		}
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	return objects, nil
}

// Rotate löscht unter prefix alle Objekte bis auf die keep neuesten und
// gibt die gelöschten Keys zurück.
func (a *Archive) Rotate(ctx context.Context, prefix string, keep int) ([]string, error) {
	objects, err := a.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if keep < 0 || len(objects) <= keep {
		return nil, nil
	}

	var deleted []string
	for _, obj := range objects[keep:] {
		_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(obj.Key),
		})
		if err != nil {
			return deleted, fmt.Errorf("deleting %s: %w", obj.Key, err)
		}
		deleted = append(deleted, obj.Key)
	}
	return deleted, nil
}
