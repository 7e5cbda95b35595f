package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"

	"github.com/wippyai/edge-abi/config"
	"github.com/wippyai/edge-abi/runtime"
)

type invokeCmd struct {
	Path    string   `kong:"arg,optional,default='/',help='Request path and query.'"`
	Method  string   `kong:"short='X',default='GET',help='Request method.'"`
	Headers []string `kong:"short='H',name='header',help='Request header as \"Name: value\". Repeatable.'"`
	Data    string   `kong:"short='d',help='Request body. @file reads it from a file.'"`
	Include bool     `kong:"short='i',help='Print the status line and response headers.'"`
}

func (c *invokeCmd) Run(common *config.CLI) error {
	cfg, err := config.Load(common)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	req, err := c.request(cfg.Server.Addr())
	if err != nil {
		return err
	}

	ctx := context.Background()
	g, err := loadGuest(ctx, cfg, newMetrics(cfg), runtime.WithStdout(os.Stderr))
	if err != nil {
		return err
	}
	defer g.Close(ctx)

	res := invoke(g.mod, req)
	if c.Include {
		writeHead(os.Stdout, res)
	}
	_, err = io.Copy(os.Stdout, res.Body)
	return err
}

func (c *invokeCmd) request(addr string) (*http.Request, error) {
	var body io.Reader
	switch {
	case strings.HasPrefix(c.Data, "@"):
		f, err := os.Open(strings.TrimPrefix(c.Data, "@"))
		if err != nil {
			return nil, err
		}
		body = f
	case c.Data != "":
		body = strings.NewReader(c.Data)
	}
	return buildRequest(addr, c.Method, c.Path, c.Headers, body)
}

// buildRequest creates a downstream request as if addr had received it.
func buildRequest(addr, method, path string, headers []string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequest(strings.ToUpper(method), "http://"+addr+path, body)
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("header %q: want \"Name: value\"", h)
		}
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return req, nil
}

// invoke runs one request through the guest and returns the recorded
// response.
func invoke(h http.Handler, req *http.Request) *http.Response {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Result()
}

func writeHead(w io.Writer, res *http.Response) {
	fmt.Fprintf(w, "%s %s\n", res.Proto, res.Status)
	names := make([]string, 0, len(res.Header))
	for name := range res.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range res.Header[name] {
			fmt.Fprintf(w, "%s: %s\n", name, v)
		}
	}
	fmt.Fprintln(w)
}
