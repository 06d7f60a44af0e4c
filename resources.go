package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// soundResource is one deduplicated audio file. The chunk is decoded on
// first use and cached; a decode failure is logged once and replaced by a
// silent chunk so later plays no-op instead of crashing.
type soundResource struct {
	path  string
	chunk *pcmChunk
}

// resourceTable interns file paths into integer resource ids and
// materializes their PCM lazily. It is populated during the single-threaded
// load phase; materialize may then be called concurrently (preload workers,
// play requests).
type resourceTable struct {
	mu        sync.Mutex
	resources []soundResource
	interned  map[string]int
	baseDir   string
	rate      int
}

func newResourceTable(rate int) *resourceTable {
	return &resourceTable{
		interned: make(map[string]int),
		rate:     rate,
	}
}

func (t *resourceTable) setBaseDir(dir string) {
	t.mu.Lock()
	t.baseDir = dir
	t.mu.Unlock()
}

// intern returns the id of an already-seen path, or appends a new
// unresolved entry. Only meaningful while the interning map is alive,
// i.e. during data ingestion.
func (t *resourceTable) intern(path string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.interned != nil {
		if id, ok := t.interned[path]; ok {
			return id
		}
	}
	id := len(t.resources)
	t.resources = append(t.resources, soundResource{path: path})
	if t.interned != nil {
		t.interned[path] = id
	}
	return id
}

// releaseInterning discards the dedup map once the load session is done;
// it exists only to de-duplicate paths during ingestion.
func (t *resourceTable) releaseInterning() {
	t.mu.Lock()
	t.interned = nil
	t.mu.Unlock()
}

// materialize decodes the resource's file on first call and caches the
// chunk. Subsequent calls return the cached chunk. Decode failures yield a
// usable silent chunk, never an error.
func (t *resourceTable) materialize(id int) *pcmChunk {
	t.mu.Lock()
	if id < 0 || id >= len(t.resources) {
		t.mu.Unlock()
		return silentChunk()
	}
	if c := t.resources[id].chunk; c != nil {
		t.mu.Unlock()
		return c
	}
	path := filepath.Join(t.baseDir, t.resources[id].path)
	t.mu.Unlock()

	chunk, err := decodePCM(path, t.rate)
	if err != nil {
		// Failing to load a sound file is not fatal; play it as silence.
		logWarn("failed to load sfx audio file %s: %v", path, err)
		chunk = silentChunk()
	}

	t.mu.Lock()
	if c := t.resources[id].chunk; c != nil {
		// Lost a decode race; keep the first result.
		chunk = c
	} else {
		t.resources[id].chunk = chunk
	}
	t.mu.Unlock()
	return chunk
}

// clear releases all cached chunks and interning state (soundpack switch or
// shutdown). Callers must have quiesced every voice borrowing from the
// table first.
func (t *resourceTable) clear() {
	t.mu.Lock()
	t.resources = nil
	t.interned = make(map[string]int)
	t.mu.Unlock()
}

// stats returns the number of materialized chunks and their total bytes.
func (t *resourceTable) stats() (count, bytes int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.resources {
		if c := t.resources[i].chunk; c != nil {
			count++
			bytes += len(c.data)
		}
	}
	return count, bytes
}

// decodePCM reads an audio file and converts it to the device format
// (stereo s16le at rate). Container decoding is delegated to the ebiten
// decoders, selected by extension.
func decodePCM(path string, rate int) (*pcmChunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var stream io.Reader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		stream, err = wav.DecodeWithSampleRate(rate, f)
	case ".ogg":
		stream, err = vorbis.DecodeWithSampleRate(rate, f)
	default:
		return nil, fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, err
	}
	// Drop any trailing partial frame so voice math can assume whole frames.
	data = data[:len(data)/bytesPerFrame*bytesPerFrame]
	return &pcmChunk{data: data}, nil
}
