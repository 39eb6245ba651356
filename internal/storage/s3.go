package storage

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

var (
	s3Session     *session.Session
	s3Bucket      string
	s3Region      string
	cloudFrontURL string
)

// InitS3 switches storage to S3. Local mode stays active if this fails.
func InitS3(bucket, region, cfURL string) error {
	s3Bucket = bucket
	s3Region = region
	cloudFrontURL = cfURL

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return err
	}

	s3Session = sess
	useLocalStorage = false
	return nil
}

func saveToS3(file *multipart.FileHeader) (string, error) {
	if s3Session == nil {
		return "", fmt.Errorf("S3 not initialized")
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	ext := filepath.Ext(file.Filename)
	key := fmt.Sprintf("%s/%s%s",
		time.Now().Format("2006/01"),
		uuid.New().String(),
		ext,
	)

	svc := s3.New(s3Session)

	_, err = svc.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s3Bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(file.Header.Get("Content-Type")),
	})
	if err != nil {
		return "", err
	}

	return key, nil
}

// PublicURL returns the externally reachable URL for a stored S3 key.
func PublicURL(key string) string {
	if cloudFrontURL != "" {
		return cloudFrontURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s3Bucket, s3Region, key)
}
