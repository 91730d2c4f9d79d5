package audio

import (
	"math"
	"testing"
)

func TestBeepQueuesStandardTone(t *testing.T) {
	d := New()
	d.Beep()
	notes := d.Drain()
	if len(notes) != 1 || notes[0].FreqHz != 800 {
		t.Fatalf("expected one 800Hz note, got %+v", notes)
	}
}

func TestBusyReflectsQueueState(t *testing.T) {
	d := New()
	if d.Busy() {
		t.Fatalf("expected an empty device to report not busy")
	}
	d.Tone(440, 10)
	if !d.Busy() {
		t.Fatalf("expected a queued tone to report busy")
	}
	d.Drain()
	if d.Busy() {
		t.Fatalf("expected Drain to empty the queue")
	}
}

func TestPlayMMLQueuesNotesByLetter(t *testing.T) {
	d := New()
	d.PlayMML("CDE")
	notes := d.Drain()
	if len(notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(notes))
	}
	if notes[0].FreqHz >= notes[1].FreqHz || notes[1].FreqHz >= notes[2].FreqHz {
		t.Fatalf("expected C < D < E in frequency, got %+v", notes)
	}
}

func TestPlayMMLSharpRaisesFrequency(t *testing.T) {
	d := New()
	d.PlayMML("C")
	plain := d.Drain()[0].FreqHz
	d.PlayMML("C#")
	sharp := d.Drain()[0].FreqHz
	if sharp <= plain {
		t.Fatalf("expected C# higher than C, got %v vs %v", sharp, plain)
	}
}

func TestPlayMMLOctaveDoublesFrequency(t *testing.T) {
	d := New()
	d.PlayMML("O4C")
	low := d.Drain()[0].FreqHz
	d.PlayMML("O5C")
	high := d.Drain()[0].FreqHz
	if math.Abs(high-2*low) > 0.01 {
		t.Fatalf("expected one octave up to double the frequency, got %v vs %v", low, high)
	}
}

func TestPlayMMLRestQueuesSilence(t *testing.T) {
	d := New()
	d.PlayMML("P4")
	notes := d.Drain()
	if len(notes) != 1 || notes[0].FreqHz != 0 {
		t.Fatalf("expected one silent rest note, got %+v", notes)
	}
}

func TestPlayMMLTempoShortensNoteDuration(t *testing.T) {
	d := New()
	d.PlayMML("T120C4")
	slow := d.Drain()[0].Ticks
	d.PlayMML("T240C4")
	fast := d.Drain()[0].Ticks
	if fast >= slow {
		t.Fatalf("expected a higher tempo to shorten the note, got %v vs %v", fast, slow)
	}
}
