package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// ErrSNSRegionRequired is returned when no AWS region is configured.
var ErrSNSRegionRequired = errors.New("sms: sns region is required")

// SNSConfig configures the AWS SNS implementation.
type SNSConfig struct {
	Region string
	// AccessKeyID and SecretAccessKey are optional; the default credential
	// chain is used when they are empty.
	AccessKeyID     string
	SecretAccessKey string
	// SenderID is shown as the sender where carriers allow it.
	SenderID string
	// Transactional marks messages as transactional for higher delivery priority.
	Transactional bool
}

type snsPublisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS sends messages through AWS SNS direct-to-phone publishing.
type SNS struct {
	client snsPublisher
	attrs  map[string]types.MessageAttributeValue
}

// NewSNS loads AWS config and constructs an SNS sender.
func NewSNS(ctx context.Context, cfg SNSConfig) (*SNS, error) {
	if cfg.Region == "" {
		return nil, ErrSNSRegionRequired
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sms: load aws config: %w", err)
	}

	return newSNSWithClient(sns.NewFromConfig(awsCfg), cfg), nil
}

func newSNSWithClient(client snsPublisher, cfg SNSConfig) *SNS {
	attrs := map[string]types.MessageAttributeValue{}
	if cfg.SenderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(cfg.SenderID),
		}
	}
	smsType := "Promotional"
	if cfg.Transactional {
		smsType = "Transactional"
	}
	attrs["AWS.SNS.SMS.SMSType"] = types.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(smsType),
	}

	return &SNS{client: client, attrs: attrs}
}

// Send publishes msg directly to the phone number.
func (s *SNS) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(msg.To),
		Message:           aws.String(msg.Body),
		MessageAttributes: s.attrs,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}

	return nil
}

// Close implements io.Closer.
func (s *SNS) Close() error {
	return nil
}
