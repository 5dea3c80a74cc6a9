package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/kendall-kelly/zone-orders-api/config"
	"github.com/kendall-kelly/zone-orders-api/models"
)

// ReceiptArchive keeps a JSON snapshot of every order as created, keyed by order number,
// so support tools can pull up a receipt from the printed number alone.
type ReceiptArchive interface {
	PutReceipt(ctx context.Context, order *models.Order) (string, error)
	GetReceiptURL(ctx context.Context, orderNumber string) (string, error)
}

// S3ReceiptArchive stores receipts in an S3 bucket
type S3ReceiptArchive struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	presignTTL time.Duration
}

// NewS3ReceiptArchive initializes the S3 client with the configured AWS credentials
func NewS3ReceiptArchive(ctx context.Context, cfg *appConfig.Config) (*S3ReceiptArchive, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.AWSRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig)

	return &S3ReceiptArchive{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.AWSS3Bucket,
		presignTTL: time.Hour,
	}, nil
}

// receiptKey is the object key for an order number
func receiptKey(orderNumber string) string {
	return fmt.Sprintf("receipts/%s.json", orderNumber)
}

// PutReceipt uploads the order snapshot and returns its key
func (s *S3ReceiptArchive) PutReceipt(ctx context.Context, order *models.Order) (string, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("failed to encode receipt %s: %w", order.OrderNumber, err)
	}

	key := receiptKey(order.OrderNumber)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"order-type": string(order.OrderType),
			"trace-code": order.Traceability.UniqueTraceCode,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt %s to S3: %w", order.OrderNumber, err)
	}

	return key, nil
}

// GetReceiptURL generates a presigned URL for a stored receipt
// The URL expires after 1 hour
func (s *S3ReceiptArchive) GetReceiptURL(ctx context.Context, orderNumber string) (string, error) {
	request, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(receiptKey(orderNumber)),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignTTL
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate receipt URL: %w", err)
	}

	log.Printf("Generated presigned receipt URL for order %s", orderNumber)
	return request.URL, nil
}
