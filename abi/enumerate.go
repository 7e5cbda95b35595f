package abi

// EnumerateFunc is a cursor-accepting host operation. It writes one
// NUL-terminated item into buf and returns the cursor of the next page.
type EnumerateFunc func(buf []byte, cursor Cursor) (CursorResult, int, Status)

// Enumerate walks a paginated host enumeration from CursorStart and returns
// every item with its NUL terminator stripped.
//
// Each page starts from DefaultBufferSize and grows by doubling while the
// host reports StatusBufferTooSmall or an UnknownLength item. Any other
// failure ends the walk with that status. The walk ends on
// a zero-length item or after an item whose next cursor is negative; no call
// is made past a terminal cursor.
func Enumerate(op EnumerateFunc) ([][]byte, error) {
	var (
		items  [][]byte
		cursor = CursorStart
	)

	for {
		item, next, err := enumeratePage(op, cursor)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return items, nil
		}
		items = append(items, item)
		if next < 0 {
			return items, nil
		}
		cursor = Cursor(next)
	}
}

// enumeratePage fetches the item at cursor. A nil item means the enumeration
// is exhausted.
func enumeratePage(op EnumerateFunc, cursor Cursor) ([]byte, CursorResult, error) {
	size := DefaultBufferSize
	for {
		buf := make([]byte, size)
		next, n, status := op(buf, cursor)
		if status != StatusOK && status != StatusBufferTooSmall {
			return nil, 0, status.toError()
		}
		if status == StatusBufferTooSmall || n == UnknownLength {
			if size >= MaxBufferSize {
				return nil, 0, StatusBufferTooSmall
			}
			size = grow(size)
			continue
		}
		if n == 0 {
			return nil, next, nil
		}
		if n < 0 || n > len(buf) || buf[n-1] != 0 {
			return nil, 0, StatusError
		}

		item := make([]byte, n-1)
		copy(item, buf[:n-1])
		return item, next, nil
	}
}

// enumerateStrings is Enumerate with string items.
func enumerateStrings(op EnumerateFunc) ([]string, error) {
	items, err := Enumerate(op)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = string(item)
	}
	return out, nil
}
