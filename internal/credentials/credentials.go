package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/doorctl/uhppote-mqtt/internal/infrastructure/config"
)

// Supervisor endpoint constants.
const (
	// supervisorEnv marks the process as running under a supervising host
	// (Home Assistant add-on). Its presence selects supervisor discovery.
	supervisorEnv = "SUPERVISOR"

	// supervisorTokenEnv holds the bearer token for the supervisor API.
	supervisorTokenEnv = "SUPERVISOR_TOKEN" //nolint:gosec // env var name, not a credential

	// defaultSupervisorURL is the well-known local supervisor endpoint that
	// hands out broker credentials.
	defaultSupervisorURL = "http://supervisor/services/mqtt"

	// requestTimeout bounds the single supervisor HTTP call.
	requestTimeout = 10 * time.Second

	// maxResponseSize caps the supervisor response body read.
	maxResponseSize = 1 << 20
)

// Source selects where broker credentials come from. It is decided once at
// startup (FromEnv) and passed down explicitly; nothing below main reads the
// process environment.
type Source int

const (
	// SourceStatic uses the four broker fields from the config file.
	SourceStatic Source = iota

	// SourceSupervisor fetches broker parameters from the supervisor API,
	// authenticated with a bearer token.
	SourceSupervisor
)

// String returns the source name for logging.
func (s Source) String() string {
	switch s {
	case SourceSupervisor:
		return "supervisor"
	default:
		return "static"
	}
}

// Credentials are the final broker connection parameters. All four fields
// are populated once resolution succeeds; the bridge must not start with
// partial credentials.
type Credentials struct {
	Host     string
	Port     uint16
	Username string
	Password string
}

// Doer is the subset of *http.Client used by the supervisor path.
// Injected so tests can stub the supervisor response.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SupervisorClient fetches broker parameters from the supervisor API.
type SupervisorClient struct {
	// URL is the supervisor service endpoint. Defaults to
	// http://supervisor/services/mqtt when empty.
	URL string

	// Token is the bearer token for the Authorization header.
	Token string

	// HTTP performs the request. Defaults to a client with a 10s timeout.
	HTTP Doer
}

// FromEnv inspects the environment once and returns the credential source
// plus a supervisor client when supervisor mode is selected.
//
// Supervisor mode is selected by the presence of the SUPERVISOR variable;
// the bearer token is taken from SUPERVISOR_TOKEN.
func FromEnv() (Source, *SupervisorClient) {
	if _, ok := os.LookupEnv(supervisorEnv); !ok {
		return SourceStatic, nil
	}
	return SourceSupervisor, &SupervisorClient{
		Token: os.Getenv(supervisorTokenEnv),
	}
}

// brokerDescriptor is the supervisor response shape. The port arrives as a
// string and must parse as a uint16. Other fields are ignored.
type brokerDescriptor struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Resolve produces final broker connection parameters from the configured
// source.
//
// SourceStatic takes the four fields from cfg directly. SourceSupervisor
// performs a single authenticated GET against the supervisor endpoint and
// takes them from the response. Either way, any of the four fields left
// unset afterwards is a fatal configuration error naming the missing field.
func Resolve(ctx context.Context, source Source, cfg config.MQTTConfig, sup *SupervisorClient) (Credentials, error) {
	var creds Credentials

	switch source {
	case SourceSupervisor:
		if sup == nil {
			return Credentials{}, fmt.Errorf("%w: supervisor client not configured", ErrResolution)
		}
		desc, err := sup.fetch(ctx)
		if err != nil {
			return Credentials{}, err
		}
		port, err := parsePort(desc.Port)
		if err != nil {
			return Credentials{}, err
		}
		creds = Credentials{
			Host:     desc.Host,
			Port:     port,
			Username: desc.Username,
			Password: desc.Password,
		}

	default:
		port := cfg.Broker.Port
		if port < 0 || port > 65535 {
			return Credentials{}, fmt.Errorf("%w: %d out of range", ErrInvalidPort, port)
		}
		creds = Credentials{
			Host:     cfg.Broker.Host,
			Port:     uint16(port),
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
		}
	}

	if err := creds.validate(); err != nil {
		return Credentials{}, err
	}

	return creds, nil
}

// fetch performs the single supervisor HTTP call.
func (s *SupervisorClient) fetch(ctx context.Context) (*brokerDescriptor, error) {
	url := s.URL
	if url == "" {
		url = defaultSupervisorURL
	}
	httpClient := s.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrResolution, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with a close error here

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: supervisor returned status %d", ErrResolution, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrResolution, err)
	}

	var desc brokerDescriptor
	if err := json.Unmarshal(body, &desc); err != nil {
		return nil, fmt.Errorf("%w: parsing response: %w", ErrResolution, err)
	}

	return &desc, nil
}

// parsePort parses the supervisor's string port as a uint16.
func parsePort(s string) (uint16, error) {
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidPort, s, err)
	}
	return uint16(port), nil
}

// validate ensures all four fields are populated.
func (c Credentials) validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("%w: host", ErrMissingField)
	case c.Port == 0:
		return fmt.Errorf("%w: port", ErrMissingField)
	case c.Username == "":
		return fmt.Errorf("%w: username", ErrMissingField)
	case c.Password == "":
		return fmt.Errorf("%w: password", ErrMissingField)
	}
	return nil
}
