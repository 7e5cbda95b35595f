package host

import (
	"strings"

	"github.com/mssola/useragent"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/errors"
)

// UserAgent is the host's parse of a User-Agent header.
type UserAgent struct {
	Family string
	Major  string
	Minor  string
	Patch  string
}

// ParseUserAgent extracts the browser family and version components.
func ParseUserAgent(ua string) UserAgent {
	name, version := useragent.New(ua).Browser()
	parts := strings.SplitN(version, ".", 4)

	out := UserAgent{Family: name}
	if len(parts) > 0 {
		out.Major = parts[0]
	}
	if len(parts) > 1 {
		out.Minor = parts[1]
	}
	if len(parts) > 2 {
		out.Patch = parts[2]
	}
	return out
}

// UAParse parses ua into the four output buffers. A component longer than
// its buffer fails the call.
func (s *Session) UAParse(ua, family, major, minor, patch []byte) (abi.UserAgentLengths, abi.Status) {
	n, err := uaParse(string(ua), family, major, minor, patch)
	return n, s.result(ModuleUAP, "parse", err)
}

func uaParse(ua string, family, major, minor, patch []byte) (abi.UserAgentLengths, error) {
	const call = ModuleUAP + "#parse"
	parsed := ParseUserAgent(ua)

	fields := []struct {
		dst []byte
		src string
	}{
		{family, parsed.Family},
		{major, parsed.Major},
		{minor, parsed.Minor},
		{patch, parsed.Patch},
	}
	for _, f := range fields {
		if len(f.src) > len(f.dst) {
			return abi.UserAgentLengths{}, errors.BufferTooSmall(call, len(f.src), len(f.dst))
		}
	}

	return abi.UserAgentLengths{
		Family: copy(family, parsed.Family),
		Major:  copy(major, parsed.Major),
		Minor:  copy(minor, parsed.Minor),
		Patch:  copy(patch, parsed.Patch),
	}, nil
}
