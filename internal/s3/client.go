// Package s3 предоставляет доступ к библиотеке треков в Amazon S3
package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Config содержит настройки для S3
type Config struct {
	Region     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	BucketName string
}

// Object описывает объект в бакете
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

type objectLister interface {
	ListObjectsV2PagesWithContext(ctx aws.Context, input *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, opts ...request.Option) error
}

type objectDownloader interface {
	DownloadWithContext(ctx aws.Context, w io.WriterAt, input *s3.GetObjectInput, opts ...func(*s3manager.Downloader)) (int64, error)
}

// Client обертка для S3 клиента и downloader
type Client struct {
	lister     objectLister
	downloader objectDownloader
	config     *Config
}

// NewClient создает новый S3 клиент
func NewClient(config *Config) (*Client, error) {
	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
	}

	// Если указан endpoint, добавляем его
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AWS сессии: %w", err)
	}

	return &Client{
		lister:     s3.New(sess),
		downloader: s3manager.NewDownloader(sess),
		config:     config,
	}, nil
}

// Bucket возвращает имя бакета
func (c *Client) Bucket() string {
	return c.config.BucketName
}

// List возвращает все объекты под префиксом, проходя по страницам ответа
func (c *Client) List(ctx context.Context, prefix string) ([]Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.config.BucketName),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []Object
	err := c.lister.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			objects = append(objects, Object{
				Key:          aws.StringValue(obj.Key),
				Size:         aws.Int64Value(obj.Size),
				LastModified: aws.TimeValue(obj.LastModified),
			})
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка объектов: %w", err)
	}

	return objects, nil
}

// Download скачивает объект в w и возвращает количество записанных байт
func (c *Client) Download(ctx context.Context, key string, w io.WriterAt) (int64, error) {
	n, err := c.downloader.DownloadWithContext(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка скачивания %s: %w", key, err)
	}
	return n, nil
}
