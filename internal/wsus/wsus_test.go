package wsus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
)

const testGroupsJSON = `[
	{"Id":"a0a08746-4dbe-4a37-9adf-9e7652c0b421","Name":"All Computers","Description":"",
	 "Summaries":[
		{"ComputerTargetId":"pc1","FailedCount":1,"NotInstalledCount":3,"DownloadedCount":0,"InstalledPendingRebootCount":0,"UnknownCount":0,"InstalledCount":10},
		{"ComputerTargetId":"pc2","FailedCount":0,"NotInstalledCount":2,"DownloadedCount":0,"InstalledPendingRebootCount":0,"UnknownCount":0,"InstalledCount":10},
		{"ComputerTargetId":"pc3","FailedCount":0,"NotInstalledCount":0,"DownloadedCount":0,"InstalledPendingRebootCount":0,"UnknownCount":0,"InstalledCount":12},
		{"ComputerTargetId":"pc4","FailedCount":0,"NotInstalledCount":0,"DownloadedCount":0,"InstalledPendingRebootCount":0,"UnknownCount":5,"InstalledCount":0}
	 ]},
	{"Id":"b73ca6ed-5727-47f3-84de-015e03f6a88a","Name":"Unassigned Computers","Description":"new","Summaries":[]}
]`

// fakeRunner answers scripts by matching a fragment of the script body.
type fakeRunner struct {
	responses map[string]string
	err       error
	scripts   []string
}

func (f *fakeRunner) Run(_ context.Context, script string) (string, error) {
	f.scripts = append(f.scripts, script)
	if f.err != nil {
		return "", f.err
	}
	for fragment, out := range f.responses {
		if strings.Contains(script, fragment) {
			return out, nil
		}
	}
	return "", errors.New("unexpected script")
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]string{
		"$wsus.Version.ToString()":     `{"Name":"WSUS01","Version":"10.0.17763.1"}`,
		"GetStatus()":                  `{"UpdateCount":1500,"ComputerTargetCount":4,"ComputerTargetsNeedingUpdatesCount":2}`,
		"GetComputerTargetGroups()":    testGroupsJSON,
		"GetLastSynchronizationInfo()": `{"StartTime":"/Date(1704067200000)/","Result":1,"Error":null}`,
		"GetSynchronizationProgress()": `{"Status":"NotProcessing","Phase":"NotProcessing","ProcessedItems":0,"TotalItems":0}`,
		"GetDatabaseConfiguration()":   `{"ServerName":"MICROSOFT##WID","IsUsingWindowsInternalDatabase":true}`,
		"GetConfiguration()":           `{"SyncFromMicrosoftUpdate":true,"ProxyServerPort":80}`,
		"-ExcludeProperty Parent":      `{"Name":"WSUS01","PortNumber":8530}`,
	}}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewClient_Probe(t *testing.T) {
	runner := newFakeRunner()
	c, err := NewClient(config.DefaultConfig(), runner, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.Version() != "10.0.17763.1" {
		t.Errorf("Version = %q", c.Version())
	}
	if len(runner.scripts) != 1 {
		t.Fatalf("expected one probe script, got %d", len(runner.scripts))
	}
	if !strings.Contains(runner.scripts[0], "GetUpdateServer('localhost', $false, 8530)") {
		t.Errorf("probe script does not connect as configured:\n%s", runner.scripts[0])
	}
}

func TestNewClient_ConnectionFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("The request failed with HTTP status 503")}
	_, err := NewClient(config.DefaultConfig(), runner, testLogger())
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("cause should be kept: %v", err)
	}
}

func TestClient_Reads(t *testing.T) {
	c, err := NewClient(config.DefaultConfig(), newFakeRunner(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	status, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if v, _ := status.Property("UpdateCount"); v.String() != "1500" {
		t.Errorf("UpdateCount = %v", v)
	}

	groups, err := c.ComputerGroups(ctx)
	if err != nil {
		t.Fatalf("ComputerGroups: %v", err)
	}
	if len(groups) != 2 || groups[0].Name != "All Computers" || len(groups[0].Summaries) != 4 {
		t.Errorf("unexpected groups: %+v", groups)
	}

	for name, read := range map[string]func(context.Context) (*Record, error){
		"info":          c.ServerInfo,
		"database":      c.DatabaseConfiguration,
		"configuration": c.Configuration,
		"lastsync":      c.LastSynchronizationInfo,
		"syncstatus":    c.SynchronizationStatus,
	} {
		if rec, err := read(ctx); err != nil || len(rec.PropertyNames()) == 0 {
			t.Errorf("%s: rec=%v err=%v", name, rec, err)
		}
	}
}

func TestClient_DecodeError(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["GetStatus()"] = "WARNING: something\n"
	c, err := NewClient(config.DefaultConfig(), runner, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Status(context.Background()); err == nil || !strings.Contains(err.Error(), "status") {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestBuildScript(t *testing.T) {
	cfg := config.DefaultConfig().WSUS
	cfg.Server = "wsus01.corp.example.com"
	cfg.Port = 8531
	cfg.UseSSL = true

	script := buildScript(cfg, statusBody)
	if !strings.Contains(script, "GetUpdateServer('wsus01.corp.example.com', $true, 8531)") {
		t.Errorf("connection line missing:\n%s", script)
	}
	if !strings.HasSuffix(script, statusBody+"\n") {
		t.Error("body should follow the prelude")
	}
}

func TestPSQuote(t *testing.T) {
	if got := psQuote("o'brien"); got != "'o''brien'" {
		t.Errorf("psQuote = %s", got)
	}
}

func TestEncodeCommand(t *testing.T) {
	// "ab" in UTF-16LE is 61 00 62 00.
	got, err := EncodeCommand("ab")
	if err != nil {
		t.Fatal(err)
	}
	if got != "YQBiAA==" {
		t.Errorf("EncodeCommand(ab) = %s, want YQBiAA==", got)
	}
}

func TestProvideRunner(t *testing.T) {
	cfg := config.DefaultConfig()
	r, err := ProvideRunner(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*LocalRunner); !ok {
		t.Errorf("local transport gave %T", r)
	}

	cfg.WSUS.Transport = config.TransportWinRM
	cfg.WinRM.Host = "wsus01"
	cfg.WinRM.User = "svc"
	cfg.WinRM.Password = "secret"
	r, err = ProvideRunner(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*WinRMRunner); !ok {
		t.Errorf("winrm transport gave %T", r)
	}

	cfg.WSUS.Transport = "telnet"
	if _, err := ProvideRunner(cfg, testLogger()); err == nil {
		t.Error("expected error for unknown transport")
	}
}

func TestLocalRunner_MissingBinary(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.WSUS.PowerShellPath = "/nonexistent/powershell"
	r := NewLocalRunner(cfg, testLogger())
	if _, err := r.Run(context.Background(), "Get-Date"); err == nil {
		t.Error("expected error for missing PowerShell binary")
	}
}
