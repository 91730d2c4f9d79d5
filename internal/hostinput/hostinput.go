// Package hostinput is the keyboard/mouse/joystick/timer input pump
// (spec.md §6): INKEY$'s non-blocking single-keypress read, KEYDOWN's
// simultaneous-key-state query, the PEN mouse proxy, STICK/STRIG
// joystick stubs, and the cooperative SLEEP/host.yield suspension
// points. Putting the terminal into raw/non-canonical mode (so INKEY$
// sees a keypress before Enter) is a real host-OS concern, so this
// collaborator is the one place in the tree that reaches for
// golang.org/x/sys/unix rather than staying purely in-memory.
package hostinput

import (
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Pump is the host-input collaborator the executor holds as an opaque
// handle.
type Pump struct {
	mu       sync.Mutex
	fd       int
	orig     *unix.Termios
	raw      bool
	keyState map[int]bool // scancode -> down, updated by a host event feeder
	mouseX   int
	mouseY   int
	mouseBtn int
	sticks   map[int][2]int
	strigs   map[int]bool
}

func New() *Pump {
	return &Pump{
		fd:       int(os.Stdin.Fd()),
		keyState: map[int]bool{},
		sticks:   map[int][2]int{},
		strigs:   map[int]bool{},
	}
}

// EnterRaw puts the controlling terminal into non-canonical, no-echo
// mode so INKEY$ observes a keypress immediately rather than after a
// line is submitted. Best-effort: a non-terminal stdin (piped input,
// test harness) silently leaves canonical mode alone.
func (p *Pump) EnterRaw() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.raw {
		return nil
	}
	termios, err := unix.IoctlGetTermios(p.fd, getTermiosRequest)
	if err != nil {
		return nil // not a terminal; nothing to do
	}
	orig := *termios
	p.orig = &orig
	raw := *termios
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(p.fd, setTermiosRequest, &raw); err != nil {
		return err
	}
	p.raw = true
	return nil
}

// LeaveRaw restores the terminal mode EnterRaw saved.
func (p *Pump) LeaveRaw() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.raw || p.orig == nil {
		return nil
	}
	err := unix.IoctlSetTermios(p.fd, setTermiosRequest, p.orig)
	p.raw = false
	return err
}

// Inkey performs a non-blocking single read of one byte (spec.md §6
// input.inkey; "" means no key was waiting). Extended keys are not
// encoded as "\0" + code: a multi-byte key sequence comes back one byte
// per call.
func (p *Pump) Inkey() string {
	buf := make([]byte, 1)
	n, err := unix.Read(p.fd, buf)
	if err != nil || n == 0 {
		return ""
	}
	return string(buf[:n])
}

// KeyDown reports whether a scancode is currently held (spec.md §6
// input.keydown), for simultaneous-key detection game loops need.
// SetKeyState is the feeder a host event loop calls to keep this
// current; this collaborator has no OS-level scancode source of its own
// on a plain terminal.
func (p *Pump) KeyDown(scancode int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keyState[scancode]
}

func (p *Pump) SetKeyState(scancode int, down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keyState[scancode] = down
}

// Mouse reports the last-known pointer position and button mask, which
// underlies PEN (spec.md §6 input.mouse).
func (p *Pump) Mouse() (x, y, buttons int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mouseX, p.mouseY, p.mouseBtn
}

func (p *Pump) SetMouse(x, y, buttons int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mouseX, p.mouseY, p.mouseBtn = x, y, buttons
}

// Stick reports a joystick axis pair (spec.md §6 input.stick).
func (p *Pump) Stick(n int) (x, y int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.sticks[n]
	return v[0], v[1]
}

func (p *Pump) SetStick(n, x, y int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sticks[n] = [2]int{x, y}
}

// Strig reports a joystick button/trigger state (spec.md §6
// input.strig).
func (p *Pump) Strig(n int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.strigs[n]
}

func (p *Pump) SetStrig(n int, pressed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strigs[n] = pressed
}

// Sleep blocks for the given number of seconds (spec.md §6 host.sleep,
// one of the executor's suspension points).
func (p *Pump) Sleep(seconds float64) {
	if seconds <= 0 {
		return
	}
	time.Sleep(time.Duration(seconds * float64(time.Second)))
}

// Yield hands control back to the host scheduler for one tick by
// sleeping one millisecond (spec.md §6 host.yield).
func (p *Pump) Yield() {
	time.Sleep(time.Millisecond)
}
