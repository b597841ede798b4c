package mqttcore

import (
	"errors"

	"github.com/golang-io/mqttcore/timer"
	"github.com/golang-io/mqttcore/transport"
)

// errNoData means a read attempt's timer budget expired before even one
// byte of a new packet arrived: the cycle routine's step 5 "-1 / no data:
// no-op" case. It is not a fault — the connection is healthy, there was
// simply nothing to read yet.
var errNoData = errors.New("mqttcore: no data within budget")

// errBudgetExpired means the command timer backing the current operation
// ran out. Every public operation turns this into a Timeout Error.
var errBudgetExpired = errors.New("mqttcore: command timer expired")

// readFull reads exactly len(buf) bytes from t, each individual Read
// bounded by budget's remaining time. The first byte may legitimately
// never arrive (errNoData); once any byte of the packet has been read, a
// further empty read or expired budget is a hard fault, matching spec's
// "any short read [after the header] is a fault".
func readFull(t transport.Transport, buf []byte, budget timer.Timer) error {
	read := 0
	for read < len(buf) {
		remaining := timer.Remaining0(budget.Remaining())
		if remaining <= 0 {
			if read == 0 {
				return errNoData
			}
			return errBudgetExpired
		}
		n, err := t.Read(buf[read:], remaining)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				if read == 0 {
					return errNoData
				}
				return errBudgetExpired
			}
			return err
		}
		if n == 0 {
			if read == 0 {
				return errNoData
			}
			return errBudgetExpired
		}
		read += n
	}
	return nil
}

// writeFull writes all of buf to t, looping over short writes, bounded by
// budget's remaining time throughout.
func writeFull(t transport.Transport, buf []byte, budget timer.Timer) error {
	written := 0
	for written < len(buf) {
		remaining := timer.Remaining0(budget.Remaining())
		if remaining <= 0 {
			return errBudgetExpired
		}
		n, err := t.Write(buf[written:], remaining)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				return errBudgetExpired
			}
			return err
		}
		if n == 0 {
			return errBudgetExpired
		}
		written += n
	}
	return nil
}

// budgetReader adapts a Transport + Timer pair into an io.Reader, so the
// packet codec's DecodeRemainingLength can read the Remaining Length
// field one byte at a time without duplicating its variable-byte-integer
// loop here. Any zero-byte read past the first header byte is a fault,
// never treated as "no data" — the packet is already in flight.
type budgetReader struct {
	t      transport.Transport
	budget timer.Timer
}

func (r *budgetReader) Read(p []byte) (int, error) {
	remaining := timer.Remaining0(r.budget.Remaining())
	if remaining <= 0 {
		return 0, errBudgetExpired
	}
	n, err := r.t.Read(p, remaining)
	if err != nil {
		if errors.Is(err, transport.ErrTimeout) {
			return 0, errBudgetExpired
		}
		return n, err
	}
	if n == 0 {
		return 0, errBudgetExpired
	}
	return n, nil
}
