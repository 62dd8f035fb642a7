package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"dmx2osc/internal/logger"
	"go.bug.st/serial"
)

// Enttec USB Pro compatible widget framing.
const (
	startOfMessage = 0x7E
	endOfMessage   = 0xE7

	labelReceivedDMX   = 5
	labelReceiveChange = 8

	maxMessageLen = 600
)

// receive every frame, not only changed ones
var receiveAlways = []byte{startOfMessage, labelReceiveChange, 0x01, 0x00, 0x00, endOfMessage}

var errBadFrame = errors.New("missing end of message")

// SerialWidget reads DMX from a USB widget in receive mode.
type SerialWidget struct {
	log      *logger.Log
	port     io.ReadWriteCloser
	cb       func(values []int)
	universe int
}

// OpenSerialWidget opens the serial port of a widget.
func OpenSerialWidget(log logger.Logger, path string, baudRate int) (*SerialWidget, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return NewSerialWidget(log, port), nil
}

// NewSerialWidget wraps an already opened port.
func NewSerialWidget(log logger.Logger, port io.ReadWriteCloser) *SerialWidget {
	return &SerialWidget{
		log:  log.Module("widget"),
		port: port,
	}
}

// Register implements Capture. A widget has a single input, so universe is
// only kept for logging.
func (w *SerialWidget) Register(universe int, cb func(values []int)) error {
	if cb == nil {
		return errors.New("nil callback")
	}
	w.universe = universe
	w.cb = cb
	return nil
}

// Run implements Capture. The port is closed when ctx is done to unblock the
// pending read.
func (w *SerialWidget) Run(ctx context.Context) error {
	if w.cb == nil {
		return errors.New("no callback registered")
	}
	if _, err := w.port.Write(receiveAlways); err != nil {
		return fmt.Errorf("failed to switch widget to receive mode: %w", err)
	}

	stop := context.AfterFunc(ctx, func() { _ = w.port.Close() })
	defer stop()

	r := bufio.NewReader(w.port)
	for {
		label, data, err := readMessage(r)
		switch {
		case err == nil:
		case errors.Is(err, errBadFrame):
			w.log.Debug("resyncing after malformed widget message")
			continue
		case ctx.Err() != nil, errors.Is(err, io.EOF):
			return nil
		default:
			return fmt.Errorf("widget read: %w", err)
		}

		if label != labelReceivedDMX {
			continue
		}
		w.handle(data)
	}
}

// Close implements Capture.
func (w *SerialWidget) Close() error {
	return w.port.Close()
}

func (w *SerialWidget) handle(data []byte) {
	if len(data) < 2 {
		return
	}
	if status := data[0]; status != 0 {
		w.log.Warnf("widget reported receive error 0x%02x on universe %d", status, w.universe)
		return
	}
	// only the null start code carries dimmer data
	if data[1] != 0 {
		return
	}

	values := make([]int, len(data)-2)
	for i, b := range data[2:] {
		values[i] = int(b)
	}
	w.cb(values)
}

// readMessage skips to the next start byte and returns one message.
func readMessage(r *bufio.Reader) (byte, []byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		if b == startOfMessage {
			break
		}
	}

	var head [3]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return 0, nil, err
	}
	n := int(head[1]) | int(head[2])<<8
	if n > maxMessageLen {
		return 0, nil, errBadFrame
	}

	data := make([]byte, n+1)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, nil, err
	}
	if data[n] != endOfMessage {
		return 0, nil, errBadFrame
	}
	return head[0], data[:n], nil
}
