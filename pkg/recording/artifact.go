package recording

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Artifact is the single WAV file produced when a session stops.
type Artifact struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Samples   int       `json:"samples"`
	CreatedAt time.Time `json:"created_at"`
}

// FileName is the download name of the raw recording.
func (a *Artifact) FileName() string {
	return fmt.Sprintf("discussion-%d.wav", a.CreatedAt.UnixMilli())
}

// MIMEType returns the container type fixed at creation.
func (a *Artifact) MIMEType() string { return MIMEType }

// Duration is the audio length.
func (a *Artifact) Duration() time.Duration {
	return time.Duration(a.Samples) * time.Second / SampleRate
}

// Open opens the artifact for reading.
func (a *Artifact) Open() (*os.File, error) {
	return os.Open(a.Path)
}

// WriteTo copies the WAV bytes to w.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	f, err := a.Open()
	if err != nil {
		return 0, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	return io.Copy(w, f)
}

// Save copies the artifact into dir under its download name and returns the
// written path.
func (a *Artifact) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	dst := filepath.Join(dir, a.FileName())
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}
	defer f.Close()
	if _, err := a.WriteTo(f); err != nil {
		return "", err
	}
	return dst, nil
}

// assemble concatenates PCM chunks into one WAV file at path. It returns
// nil when no chunk was captured.
func assemble(path string, chunks [][]byte, createdAt time.Time) (*Artifact, error) {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total < BitDepth/8 {
		return nil, nil
	}

	data := make([]int, 0, total/2)
	var carry []byte
	for _, c := range chunks {
		if len(carry) > 0 {
			c = append(carry, c...)
			carry = nil
		}
		n := len(c) &^ 1
		for i := 0; i < n; i += 2 {
			data = append(data, int(int16(binary.LittleEndian.Uint16(c[i:i+2]))))
		}
		if n < len(c) {
			carry = []byte{c[n]}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, SampleRate, BitDepth, NumChannels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: NumChannels, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	return &Artifact{
		Path:      path,
		Size:      info.Size(),
		Samples:   len(data),
		CreatedAt: createdAt,
	}, nil
}
