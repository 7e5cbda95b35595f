package abi

// UserAgentFieldSize is the capacity of each user-agent output buffer.
const UserAgentFieldSize = 64

// UserAgent is the host's parse of a User-Agent header.
type UserAgent struct {
	Family string
	Major  string
	Minor  string
	Patch  string
}

// ParseUserAgent asks the host to parse ua. The output buffers are fixed;
// a field that does not fit fails the call with StatusBufferTooSmall.
func (s *Session) ParseUserAgent(ua string) (UserAgent, error) {
	var family, major, minor, patch [UserAgentFieldSize]byte

	n, status := s.host.UAParse([]byte(ua), family[:], major[:], minor[:], patch[:])
	if err := status.toError(); err != nil {
		return UserAgent{}, err
	}

	field := func(buf []byte, n int) (string, error) {
		if n < 0 || n > len(buf) {
			return "", StatusError
		}
		return string(buf[:n]), nil
	}

	var (
		out UserAgent
		err error
	)
	if out.Family, err = field(family[:], n.Family); err != nil {
		return UserAgent{}, err
	}
	if out.Major, err = field(major[:], n.Major); err != nil {
		return UserAgent{}, err
	}
	if out.Minor, err = field(minor[:], n.Minor); err != nil {
		return UserAgent{}, err
	}
	if out.Patch, err = field(patch[:], n.Patch); err != nil {
		return UserAgent{}, err
	}
	return out, nil
}
