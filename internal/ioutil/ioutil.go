package ioutil

import (
	"errors"
	"io"
)

var ErrTooLarge = errors.New("ioutil: body too large")

// ReadToEnd reads r until EOF, or until expected bytes when expected is not
// negative.
func ReadToEnd(r io.Reader, expected int64) ([]byte, error) {
	n := expected
	if n < 0 {
		n = 512
	}

	buf := make([]byte, n)
	i := int64(0)
	for expected < 0 || i < expected {
		if i >= n {
			buf = append(buf, 0)
			n = int64(cap(buf))
			buf = buf[:n]
		}

		nn, err := r.Read(buf[i:n])
		i += int64(nn)
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			return buf[:i], err
		}
	}
	return buf[:i], nil
}

// ReadLimited reads r to the end, failing once more than limit bytes arrive.
// contentLength sizes the buffer when known; a non-positive limit disables
// the check.
func ReadLimited(r io.Reader, contentLength int64, limit int64) ([]byte, error) {
	if limit <= 0 {
		return ReadToEnd(r, contentLength)
	}
	if contentLength > limit {
		return nil, ErrTooLarge
	}
	if contentLength >= 0 {
		return ReadToEnd(r, contentLength)
	}
	data, err := ReadToEnd(io.LimitReader(r, limit+1), -1)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
