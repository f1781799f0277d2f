// Package credentials resolves API secrets through an ordered source
// chain. Callers declare where a secret may come from; the resolver
// returns the first source that has it.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when no source in the chain holds the secret.
var ErrNotFound = errors.New("credential not found")

// Source yields a secret by name. A source that does not hold the secret
// returns ErrNotFound so the chain can continue.
type Source interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// Resolver walks its sources in order and returns the first hit.
type Resolver struct {
	sources []Source
}

// NewResolver builds a resolver over the given sources. Order matters:
// earlier sources win.
func NewResolver(sources ...Source) *Resolver {
	return &Resolver{sources: sources}
}

// Resolve returns the secret from the first source that holds it, or
// ErrNotFound when none does.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	for _, source := range r.sources {
		value, err := source.Lookup(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", name, err)
		}
		return value, nil
	}
	return "", fmt.Errorf("resolve %s: %w", name, ErrNotFound)
}

// StaticSource serves secrets from an in-memory map. Used for explicit
// configuration and for tests.
type StaticSource map[string]string

func (s StaticSource) Lookup(_ context.Context, name string) (string, error) {
	value, ok := s[name]
	if !ok || value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// EnvSource serves secrets from environment variables, mapping credential
// names to variable names.
type EnvSource map[string]string

func (s EnvSource) Lookup(_ context.Context, name string) (string, error) {
	envVar, ok := s[name]
	if !ok {
		return "", ErrNotFound
	}
	value := os.Getenv(envVar)
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// ssmAPI is the slice of the SSM client the source uses.
type ssmAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMSource serves secrets from AWS SSM Parameter Store, mapping
// credential names to parameter paths.
type SSMSource struct {
	client ssmAPI
	params map[string]string
}

// NewSSMSource creates an SSM-backed source. params maps credential names
// to parameter paths; names without an entry fall through the chain.
func NewSSMSource(client ssmAPI, params map[string]string) *SSMSource {
	return &SSMSource{client: client, params: params}
}

func (s *SSMSource) Lookup(ctx context.Context, name string) (string, error) {
	paramName, ok := s.params[name]
	if !ok {
		return "", ErrNotFound
	}
	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("ssm get %s: %w", paramName, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return "", ErrNotFound
	}
	log.Debug().Str("param", paramName).Msg("Credential loaded from SSM")
	return *result.Parameter.Value, nil
}
