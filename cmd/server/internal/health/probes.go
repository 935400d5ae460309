package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
)

// HTTPProbe reports a service healthy when it answers at all. The analysis
// and meeting services expose no health route, so any HTTP status counts;
// only transport failures do not.
type HTTPProbe struct {
	ServiceName string
	URL         string
	Client      *http.Client
}

func (p HTTPProbe) Name() string { return p.ServiceName }

func (p HTTPProbe) Check(ctx context.Context) error {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// BinaryProbe checks that an executable is on PATH.
type BinaryProbe struct {
	ServiceName string
	Path        string
}

func (p BinaryProbe) Name() string { return p.ServiceName }

func (p BinaryProbe) Check(context.Context) error {
	if _, err := exec.LookPath(p.Path); err != nil {
		return fmt.Errorf("%s not found on PATH", p.Path)
	}
	return nil
}

// DirProbe checks that a directory exists or can be created and is
// writable.
type DirProbe struct {
	ServiceName string
	Dir         string
}

func (p DirProbe) Name() string { return p.ServiceName }

func (p DirProbe) Check(context.Context) error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", p.Dir, err)
	}
	f, err := os.CreateTemp(p.Dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%s not writable: %w", p.Dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
