package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestWAVRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	m := NewMixer(mapSource{"hum": constBuffer(100, 0.5)})
	m.PlayMusic("hum")

	rec := NewWAVRecorder(f, m)
	// 0.1秒を3回に分けて書き込む（端数は持ち越し）
	for _, dt := range []float64{0.04, 0.03, 0.03} {
		if err := rec.Advance(dt); err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if rec.Frames() < 4409 || rec.Frames() > 4410 {
		t.Errorf("Frames() = %d, want about 4410", rec.Frames())
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	dec := wav.NewDecoder(in)
	if !dec.IsValidFile() {
		t.Fatal("recorded file is not a valid WAV")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer failed: %v", err)
	}
	if dec.NumChans != 2 || dec.SampleRate != SampleRate || dec.BitDepth != 16 {
		t.Errorf("format = %d ch, %d Hz, %d bit", dec.NumChans, dec.SampleRate, dec.BitDepth)
	}
	if int64(len(buf.Data)) != rec.Frames()*2 {
		t.Errorf("samples = %d, want %d", len(buf.Data), rec.Frames()*2)
	}
	if buf.Data[0] != 16383 || buf.Data[1] != 16383 {
		t.Errorf("first frame = %v", buf.Data[:2])
	}
}

func TestWAVRecorderIgnoresNonPositive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rec := NewWAVRecorder(f, NewMixer(mapSource{}))
	if err := rec.Advance(0); err != nil {
		t.Fatal(err)
	}
	if err := rec.Advance(-1); err != nil {
		t.Fatal(err)
	}
	if rec.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", rec.Frames())
	}
	rec.Close()
}
