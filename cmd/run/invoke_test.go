package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/host"
	"github.com/wippyai/edge-abi/runtime"
)

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest("127.0.0.1:7676", "post", "items?id=3",
		[]string{"X-One: 1", "x-two:two"}, strings.NewReader("payload"))
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != "POST" {
		t.Errorf("method = %q", req.Method)
	}
	if got := req.URL.String(); got != "http://127.0.0.1:7676/items?id=3" {
		t.Errorf("url = %q", got)
	}
	if req.Header.Get("X-One") != "1" || req.Header.Get("X-Two") != "two" {
		t.Errorf("headers = %v", req.Header)
	}
}

func TestBuildRequest_BadHeader(t *testing.T) {
	if _, err := buildRequest("localhost", "GET", "/", []string{"no-colon"}, nil); err == nil {
		t.Fatal("expected error for header without colon")
	}
}

func TestInvoke_Native(t *testing.T) {
	h := runtime.Native(func(sess *abi.Session) error {
		req, err := sess.DownstreamRequest()
		if err != nil {
			return err
		}
		uri, err := req.URI()
		if err != nil {
			return err
		}
		resp, err := sess.DownstreamResponse()
		if err != nil {
			return err
		}
		if err := resp.SetStatus(201); err != nil {
			return err
		}
		if err := resp.Headers.Set("x-b", "2"); err != nil {
			return err
		}
		if err := resp.Headers.Set("x-a", "1"); err != nil {
			return err
		}
		if _, err := resp.Body.WriteString(uri); err != nil {
			return err
		}
		return resp.Finish()
	}, host.Options{})

	req, err := buildRequest("example.com", "GET", "/echo", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	res := invoke(h, req)
	if res.StatusCode != 201 {
		t.Fatalf("status = %d", res.StatusCode)
	}
	body, _ := io.ReadAll(res.Body)
	if string(body) != "http://example.com/echo" {
		t.Errorf("body = %q", body)
	}

	var head bytes.Buffer
	writeHead(&head, res)
	out := head.String()
	if !strings.HasPrefix(out, "HTTP/1.1 201 Created\n") {
		t.Errorf("status line = %q", out)
	}
	if strings.Index(out, "X-A: 1") > strings.Index(out, "X-B: 2") {
		t.Errorf("headers not sorted:\n%s", out)
	}
}
