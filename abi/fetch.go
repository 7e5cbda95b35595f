package abi

const (
	// DefaultBufferSize is the starting capacity for host calls that fill a
	// caller-supplied buffer.
	DefaultBufferSize = 64

	// MaxBufferSize bounds buffer growth. A host that keeps reporting
	// StatusBufferTooSmall past this size gets the status surfaced.
	MaxBufferSize = 1 << 20
)

// FetchFunc is a host operation that fills buf and reports the number of
// bytes written.
type FetchFunc func(buf []byte) (int, Status)

// Fetch calls op with a buffer of initial capacity, doubling it on every
// StatusBufferTooSmall until the call succeeds or fails for another reason.
// The returned slice is sized to the written content.
func Fetch(initial int, op FetchFunc) ([]byte, error) {
	size := initial
	if size <= 0 {
		size = DefaultBufferSize
	}

	for {
		buf := make([]byte, size)
		n, status := op(buf)
		if status == StatusBufferTooSmall {
			if size >= MaxBufferSize {
				return nil, StatusBufferTooSmall
			}
			size = grow(size)
			continue
		}
		if err := status.toError(); err != nil {
			return nil, err
		}
		if n < 0 || n > len(buf) {
			return nil, StatusError
		}
		return buf[:n], nil
	}
}

// grow doubles size, clamping at MaxBufferSize.
func grow(size int) int {
	size *= 2
	if size > MaxBufferSize {
		size = MaxBufferSize
	}
	return size
}
