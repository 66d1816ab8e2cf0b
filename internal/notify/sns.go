package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type snsAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes reminders through AWS SNS.
type SNSPublisher struct {
	client snsAPI
}

// NewSNSPublisher builds a client from the default AWS credential chain.
func NewSNSPublisher(ctx context.Context, region string) (*SNSPublisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSPublisher{client: sns.NewFromConfig(cfg)}, nil
}

func (p *SNSPublisher) Publish(ctx context.Context, r Reminder) (string, error) {
	in := &sns.PublishInput{Message: aws.String(r.Message)}
	if r.Subject != "" {
		in.Subject = aws.String(r.Subject)
	}
	if r.TopicArn != "" {
		in.TopicArn = aws.String(r.TopicArn)
	} else {
		in.PhoneNumber = aws.String(r.PhoneNumber)
	}

	out, err := p.client.Publish(ctx, in)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}
