// Package dbauth mints the credentials used to open database connections.
package dbauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/abgdnv/online-orders/pkg/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/cenkalti/backoff/v4"
)

var ErrToken = errors.New("failed to obtain database credential")

// TokenSource returns the password for the next connection.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// BuildTokenFunc matches auth.BuildAuthToken.
type BuildTokenFunc func(ctx context.Context, endpoint, region, dbUser string, creds aws.CredentialsProvider, optFns ...func(options *auth.BuildAuthTokenOptions)) (string, error)

// RDSIAMTokenSource signs a short-lived IAM authentication token on every call.
// Tokens are never cached: each connection gets its own.
type RDSIAMTokenSource struct {
	endpoint string
	region   string
	user     string
	creds    aws.CredentialsProvider
	build    BuildTokenFunc
}

// NewRDSIAMTokenSource loads the default AWS credential chain for region.
func NewRDSIAMTokenSource(ctx context.Context, cfg config.DatabaseConfig) (*RDSIAMTokenSource, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return NewRDSIAMTokenSourceWith(cfg, awsCfg.Credentials, auth.BuildAuthToken), nil
}

// NewRDSIAMTokenSourceWith is NewRDSIAMTokenSource with explicit credentials and signer.
func NewRDSIAMTokenSourceWith(cfg config.DatabaseConfig, creds aws.CredentialsProvider, build BuildTokenFunc) *RDSIAMTokenSource {
	return &RDSIAMTokenSource{
		endpoint: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		region:   cfg.Region,
		user:     cfg.User,
		creds:    creds,
		build:    build,
	}
}

func (s *RDSIAMTokenSource) Token(ctx context.Context) (string, error) {
	token, err := s.build(ctx, s.endpoint, s.region, s.user, s.creds)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToken, err)
	}
	return token, nil
}

// StaticTokenSource always returns the same password.
type StaticTokenSource struct {
	password string
}

func NewStaticTokenSource(password string) StaticTokenSource {
	return StaticTokenSource{password: password}
}

func (s StaticTokenSource) Token(context.Context) (string, error) {
	return s.password, nil
}

// RetryingTokenSource retries the wrapped source with exponential backoff.
type RetryingTokenSource struct {
	next TokenSource
	cfg  config.RetryConfig
}

func WithRetry(next TokenSource, cfg config.RetryConfig) *RetryingTokenSource {
	return &RetryingTokenSource{next: next, cfg: cfg}
}

func (s *RetryingTokenSource) Token(ctx context.Context) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialBackoff
	b.MaxInterval = s.cfg.MaxBackoff
	b.MaxElapsedTime = 0

	var policy backoff.BackOff = b
	if s.cfg.MaxAttempts > 0 {
		policy = backoff.WithMaxRetries(policy, uint64(s.cfg.MaxAttempts-1))
	}
	return backoff.RetryWithData(func() (string, error) {
		return s.next.Token(ctx)
	}, backoff.WithContext(policy, ctx))
}

// New returns the token source selected by cfg.Auth.
func New(ctx context.Context, cfg config.DatabaseConfig) (TokenSource, error) {
	switch cfg.Auth {
	case config.DatabaseAuthIAM:
		src, err := NewRDSIAMTokenSource(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return WithRetry(src, cfg.Retry), nil
	case config.DatabaseAuthPassword:
		return NewStaticTokenSource(cfg.Password), nil
	default:
		return nil, fmt.Errorf("unsupported database auth %q", cfg.Auth)
	}
}
