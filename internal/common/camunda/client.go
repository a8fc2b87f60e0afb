// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/workflow"
)

// Client wraps the Zeebe gRPC client with retry and error mapping.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// Deployment describes the process version the broker holds after a deploy.
type Deployment struct {
	ProcessID  string
	Version    int32
	Definition int64
}

// NewClient connects to a local plaintext gateway.
func NewClient(address string) (*Client, error) {
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         30 * time.Second,
	})
}

func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.ConnectionTimeout <= 0 {
		config.ConnectionTimeout = 10 * time.Second
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
	defer cancel()

	if _, err := zeebeClient.NewTopologyCommand().Send(ctx); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
	}

	return &Client{client: zeebeClient, config: config}, nil
}

// GetClient returns the raw Zeebe client for job workers.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// DeployProcess uploads the embedded perfume-description model.
func (c *Client) DeployProcess(ctx context.Context) (*Deployment, error) {
	result, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
		return c.client.NewDeployResourceCommand().
			AddResource(workflow.Resource(), workflow.ResourceName).
			Send(ctx)
	}, "deploy process")
	if err != nil {
		return nil, err
	}

	resp, ok := result.(*pb.DeployResourceResponse)
	if !ok {
		return nil, fmt.Errorf("deploy process: unexpected response %T", result)
	}
	for _, d := range resp.GetDeployments() {
		if p := d.GetProcess(); p != nil && p.GetBpmnProcessId() == workflow.ProcessID {
			return &Deployment{
				ProcessID:  p.GetBpmnProcessId(),
				Version:    p.GetVersion(),
				Definition: p.GetProcessDefinitionKey(),
			}, nil
		}
	}
	return nil, fmt.Errorf("deploy process: %s missing from deployment", workflow.ProcessID)
}

// StartPipeline creates an instance of the latest process version and
// returns its key.
func (c *Client) StartPipeline(ctx context.Context, variables map[string]interface{}) (int64, error) {
	result, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		cmd, err := c.client.NewCreateInstanceCommand().
			BPMNProcessId(workflow.ProcessID).
			LatestVersion().
			VariablesFromMap(variables)
		if err != nil {
			return nil, apperrors.NewInputValidationError(fmt.Sprintf("process variables: %v", err))
		}
		ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
		return cmd.Send(ctx)
	}, "create process instance")
	if err != nil {
		return 0, err
	}
	resp, ok := result.(*pb.CreateProcessInstanceResponse)
	if !ok {
		return 0, fmt.Errorf("create process instance: unexpected response %T", result)
	}
	return resp.GetProcessInstanceKey(), nil
}

// ExecuteWithRetry runs a Zeebe command with exponential backoff. Only
// transient failures are retried.
func (c *Client) ExecuteWithRetry(
	ctx context.Context,
	commandFunc func(context.Context) (interface{}, error),
	operationName string,
) (interface{}, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryConfig.MaxRetries; attempt++ {
		result, err := commandFunc(ctx)
		if err == nil {
			return result, nil
		}
		if _, ok := apperrors.AsStandardError(err); ok {
			return nil, err
		}

		lastErr = err
		if !isRetryableZeebeError(err) || attempt == c.config.RetryConfig.MaxRetries {
			return nil, mapZeebeError(err, operationName, attempt)
		}

		delay := c.config.RetryConfig.BaseDelay * time.Duration(1<<attempt)
		if delay > c.config.RetryConfig.MaxDelay {
			delay = c.config.RetryConfig.MaxDelay
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("operation %s cancelled after %d attempts: %w", operationName, attempt+1, ctx.Err())
		}
	}

	return nil, fmt.Errorf("operation %s failed after %d retries: %w", operationName, c.config.RetryConfig.MaxRetries, lastErr)
}

var retryablePhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
	"resource_exhausted",
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// mapZeebeError converts a broker failure into an application error.
func mapZeebeError(err error, operation string, attempt int) error {
	wrapped := fmt.Errorf("zeebe operation '%s' failed", operation)
	if attempt > 0 {
		wrapped = fmt.Errorf("zeebe operation '%s' failed after %d attempts", operation, attempt+1)
	}
	wrapped = fmt.Errorf("%v: %w", wrapped, err)

	if isRetryableZeebeError(err) {
		return apperrors.NewWorkflowUnavailableError(operation, wrapped)
	}
	return apperrors.NewWorkflowRejectedError(operation, wrapped)
}

// HealthCheck asks the gateway for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}
