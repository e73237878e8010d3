package notify

import (
	"context"
	"io"
)

// BellSender rings the terminal bell. It is the always-available fallback for
// operators watching the dashboard without any chat integration.
type BellSender struct {
	out io.Writer
}

// NewBellSender creates a BellSender writing to out, usually os.Stdout.
func NewBellSender(out io.Writer) *BellSender {
	return &BellSender{out: out}
}

// Send emits the BEL character. Title and message are ignored; the dashboard
// already shows the details.
func (b *BellSender) Send(ctx context.Context, title, message string) error {
	_, err := b.out.Write([]byte{'\a'})
	return err
}

// Name returns the sender identifier.
func (b *BellSender) Name() string {
	return "bell"
}
