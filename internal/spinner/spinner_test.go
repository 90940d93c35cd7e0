package spinner

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// syncBuffer guards a buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner(t *testing.T) {
	var out syncBuffer
	s := Start(&out, "Grading terraform (1/5)")

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Grading terraform (1/5)")
	}, time.Second, 10*time.Millisecond)

	s.Update("Grading k8s (2/5)")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Grading k8s (2/5)")
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()

	got := out.String()
	width := len([]rune("⠋ Grading terraform (1/5)"))
	require.True(t, strings.HasSuffix(got, "\r"+strings.Repeat(" ", width)+"\r"), "line is cleared on stop: %q", got)
}
