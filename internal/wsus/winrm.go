package wsus

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/masterzen/winrm"
	"github.com/masterzen/winrm/soap"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
)

// WinRMRunner runs scripts on a remote WSUS host over WinRM.
//   - If domain is empty, uses Basic auth over an instrumented HTTP transport
//   - If domain is set, uses NTLM as DOMAIN\user
type WinRMRunner struct {
	client *winrm.Client
	host   string
	log    *slog.Logger
}

// NewWinRMRunner creates a WinRM runner from the winrm config section.
func NewWinRMRunner(cfg *config.Config, log *slog.Logger) (*WinRMRunner, error) {
	timeout := time.Duration(cfg.WSUS.Timeout) * time.Second

	endpoint := winrm.NewEndpoint(
		cfg.WinRM.Host,
		cfg.WinRMEndpointPort(),
		cfg.WinRM.HTTPS,
		cfg.WinRM.Insecure,
		nil, // CA certificate
		nil, // client certificate
		nil, // client key
		timeout,
	)

	params := winrm.NewParameters(fmt.Sprintf("PT%dS", cfg.WSUS.Timeout), "en-US", 153600)
	user := cfg.WinRM.User

	if cfg.WinRM.Domain != "" {
		user = fmt.Sprintf("%s\\%s", cfg.WinRM.Domain, cfg.WinRM.User)
		params.TransportDecorator = func() winrm.Transporter {
			return &winrm.ClientNTLM{}
		}
	} else {
		basic := &basicTransport{user: cfg.WinRM.User, password: cfg.WinRM.Password}
		params.TransportDecorator = func() winrm.Transporter {
			return basic
		}
	}

	client, err := winrm.NewClientWithParameters(endpoint, user, cfg.WinRM.Password, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create WinRM client: %w", err)
	}

	return &WinRMRunner{
		client: client,
		host:   cfg.WinRM.Host,
		log:    log,
	}, nil
}

// Run executes script on the remote host as an encoded PowerShell command.
func (r *WinRMRunner) Run(ctx context.Context, script string) (string, error) {
	r.log.Debug("Running PowerShell script over WinRM", "host", r.host, "bytes", len(script))

	stdout, stderr, exitCode, err := r.client.RunWithContextWithString(ctx, winrm.Powershell(script), "")
	if err != nil {
		return "", fmt.Errorf("WinRM execution on %s failed: %w", r.host, err)
	}
	if exitCode != 0 {
		return "", fmt.Errorf("PowerShell on %s failed (exit code %d): %s", r.host, exitCode, strings.TrimSpace(stderr))
	}

	return stdout, nil
}

// basicTransport posts SOAP envelopes with Basic auth through an
// otelhttp-instrumented client.
type basicTransport struct {
	user     string
	password string
	url      string
	http     *http.Client
}

// Transport implements winrm.Transporter.
func (t *basicTransport) Transport(endpoint *winrm.Endpoint) error {
	scheme := "http"
	if endpoint.HTTPS {
		scheme = "https"
	}
	t.url = fmt.Sprintf("%s://%s/wsman", scheme, net.JoinHostPort(endpoint.Host, strconv.Itoa(endpoint.Port)))

	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: endpoint.Insecure, //nolint:gosec // G402: user-configurable option, off by default
		},
		ResponseHeaderTimeout: endpoint.Timeout,
	}

	t.http = &http.Client{
		Transport: otelhttp.NewTransport(base),
	}
	return nil
}

// Post implements winrm.Transporter.
func (t *basicTransport) Post(_ *winrm.Client, request *soap.SoapMessage) (string, error) {
	req, err := http.NewRequest(http.MethodPost, t.url, strings.NewReader(request.String()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml;charset=UTF-8")
	req.SetBasicAuth(t.user, t.password)

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return string(body), nil
}
