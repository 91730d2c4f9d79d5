// Package audio is the narrow, opaque beeper-style audio collaborator
// (spec.md §6): BEEP, a raw frequency/duration tone, and the MML subset
// PLAY accepts. Actual sound synthesis is out of scope (spec.md §1); this
// collaborator records the sequence of notes a program asked to play so
// a host can render them, and exposes enough state (Drain, Busy) for
// PLAY's "MB"/"MF" background/foreground flag and the PLAY(n) trap to
// observe completion.
package audio

import (
	"math"
	"strconv"
	"strings"
	"sync"
)

// Tick is QBasic's audio-duration unit: 1/18.2 second (spec.md §6, the
// GLOSSARY's "Tick" entry).
const Tick = 1.0 / 18.2

// Note is one queued tone: frequency in Hz (0 = rest) for a duration in
// ticks.
type Note struct {
	FreqHz float64
	Ticks  float64
}

// Device is the audio collaborator the executor holds as an opaque
// handle; SOUND/BEEP/PLAY all funnel through it.
type Device struct {
	mu        sync.Mutex
	queue     []Note
	octave    int
	tempo     int // quarter notes per minute
	noteLen   int // default denominator (4 = quarter note)
	articPct  int // eighths of the note length actually sounded (MN 7, ML 8, MS 6)
	background bool
}

func New() *Device {
	return &Device{octave: 4, tempo: 120, noteLen: 4, articPct: 7}
}

// Beep queues the standard 800Hz/0.25s beep (spec.md §6 audio.beep).
func (d *Device) Beep() {
	d.Tone(800, 0.25/Tick)
}

// Tone queues a raw frequency/duration tone (spec.md §6 audio.tone).
func (d *Device) Tone(freqHz float64, ticks float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, Note{FreqHz: freqHz, Ticks: ticks})
}

// semitoneFromC maps a note letter (A-G) to its semitone offset from C
// within an octave, for the standard 12-tone equal-temperament scale
// QBasic's PLAY uses (A4 = 440Hz).
var semitoneFromC = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

func noteFreq(letter byte, sharpFlat int, octave int) float64 {
	semitone := semitoneFromC[letter] + sharpFlat
	n := semitone - semitoneFromC['A'] + (octave-4)*12
	return 440.0 * math.Pow(2, float64(n)/12.0)
}

// PlayMML parses and queues the MML subset spec.md's manual describes:
// note letters A-G with optional # / + (sharp) or - (flat), octave O<n>,
// tempo T<bpm>, default length L<n>, articulation MN/ML/MS, rests P<n>,
// and a trailing numeric duration override per note.
func (d *Device) PlayMML(mml string) {
	mml = strings.ToUpper(strings.TrimSpace(mml))
	i := 0
	for i < len(mml) {
		c := mml[i]
		switch {
		case c == ' ':
			i++
		case c == 'O':
			i++
			n, adv := readInt(mml[i:])
			if adv > 0 {
				d.mu.Lock()
				d.octave = n
				d.mu.Unlock()
				i += adv
			}
		case c == 'T':
			i++
			n, adv := readInt(mml[i:])
			if adv > 0 {
				d.mu.Lock()
				d.tempo = n
				d.mu.Unlock()
				i += adv
			}
		case c == 'L':
			i++
			n, adv := readInt(mml[i:])
			if adv > 0 {
				d.mu.Lock()
				d.noteLen = n
				d.mu.Unlock()
				i += adv
			}
		case c == 'M' && i+1 < len(mml):
			switch mml[i+1] {
			case 'N':
				d.mu.Lock()
				d.articPct = 7
				d.mu.Unlock()
			case 'L':
				d.mu.Lock()
				d.articPct = 8
				d.mu.Unlock()
			case 'S':
				d.mu.Lock()
				d.articPct = 6
				d.mu.Unlock()
			case 'B':
				d.mu.Lock()
				d.background = true
				d.mu.Unlock()
			case 'F':
				d.mu.Lock()
				d.background = false
				d.mu.Unlock()
			}
			i += 2
		case c == 'P' || c == 'N':
			i++
			n, adv := readInt(mml[i:])
			i += adv
			ticks := d.noteTicks(n)
			d.Tone(0, ticks)
		case c >= 'A' && c <= 'G':
			letter := c
			i++
			sharpFlat := 0
			if i < len(mml) && (mml[i] == '#' || mml[i] == '+') {
				sharpFlat = 1
				i++
			} else if i < len(mml) && mml[i] == '-' {
				sharpFlat = -1
				i++
			}
			n, adv := readInt(mml[i:])
			i += adv
			d.mu.Lock()
			octave := d.octave
			d.mu.Unlock()
			ticks := d.noteTicks(n)
			d.Tone(noteFreq(letter, sharpFlat, octave), ticks)
		default:
			i++
		}
	}
}

func (d *Device) noteTicks(denominator int) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if denominator <= 0 {
		denominator = d.noteLen
	}
	quarterSeconds := 60.0 / float64(d.tempo)
	seconds := quarterSeconds * 4.0 / float64(denominator)
	return seconds / Tick
}

func readInt(s string) (int, int) {
	j := 0
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == 0 {
		return 0, 0
	}
	n, _ := strconv.Atoi(s[:j])
	return n, j
}

// Drain removes and returns every queued note, for a host render loop to
// consume (spec.md §6: the core holds an opaque handle and passes it
// through; rendering is the host's job).
func (d *Device) Drain() []Note {
	d.mu.Lock()
	defer d.mu.Unlock()
	q := d.queue
	d.queue = nil
	return q
}

// Busy reports whether notes remain queued, the signal PLAY(n)'s trap
// and "MB"/"MF" background flag observe.
func (d *Device) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue) > 0
}
