package service

import (
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ReportUploader exports integrity sweep reports to an S3 bucket.
type S3ReportUploader struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

func NewS3ReportUploader(client *s3.Client, bucket string, publicBaseURL string) *S3ReportUploader {
	return &S3ReportUploader{
		client:        client,
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
	}
}

func (u *S3ReportUploader) Upload(ctx context.Context, key string, body []byte) (string, error) {
	uploader := manager.NewUploader(u.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(u.publicBaseURL, "/") + "/" + key, nil
}
