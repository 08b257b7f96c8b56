package upstream

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog/log"

	"github.com/sessiongate/session-gateway/internal/config"
	"github.com/sessiongate/session-gateway/internal/utils"
)

// Signer adds an AWS SigV4 signature to completion requests, for deployments
// where the completion provider sits behind IAM-authenticated infrastructure
// such as API Gateway or a Lambda function URL.
type Signer struct {
	service    string
	region     string
	creds      aws.CredentialsProvider
	signer     *v4.Signer
	configured bool
}

// NewSigner builds a Signer from signing configuration. When signing is
// disabled, or the AWS credential chain yields nothing, the returned Signer
// reports unconfigured and requests go out unsigned. Construction never
// fails; a gateway without credentials still serves unsigned deployments.
func NewSigner(cfg config.AWSSigningConfig) *Signer {
	s := &Signer{
		service: cfg.Service,
		region:  cfg.Region,
	}
	if !cfg.Enabled {
		return s
	}
	if s.service == "" {
		s.service = "execute-api"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		log.Error().Err(err).Msg("sigv4 signing enabled but aws config could not be loaded")
		return s
	}
	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("sigv4 signing enabled but no aws credentials resolved")
		return s
	}

	s.creds = awsCfg.Credentials
	s.signer = v4.NewSigner()
	s.configured = true
	log.Info().
		Str("service", s.service).
		Str("region", s.region).
		Str("access_key", utils.MaskKey(creds.AccessKeyID)).
		Msg("sigv4 signing enabled for completion requests")
	return s
}

// IsConfigured reports whether SignRequest will actually sign.
func (s *Signer) IsConfigured() bool {
	return s != nil && s.configured
}

// SignRequest signs req in place. body must be the exact payload the request
// carries; SigV4 binds the signature to its SHA-256.
func (s *Signer) SignRequest(ctx context.Context, req *http.Request, body []byte) error {
	creds, err := s.creds.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("retrieving aws credentials: %w", err)
	}

	sum := sha256.Sum256(body)
	payloadHash := hex.EncodeToString(sum[:])

	if err := s.signer.SignHTTP(ctx, creds, req, payloadHash, s.service, s.region, time.Now()); err != nil {
		return fmt.Errorf("signing request: %w", err)
	}
	return nil
}
