// Package store persists generated signals as compact single-file
// archives: a JSON document of update triples, snappy-compressed and
// checksummed.
package store

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"golang.org/x/exp/constraints"

	"github.com/dd0wney/episignal/pkg/graph"
	"github.com/dd0wney/episignal/pkg/signal"
)

var (
	// ErrBadMagic is returned when a file is not a signal archive
	ErrBadMagic = errors.New("not a signal archive")

	// ErrBadVersion is returned for an unsupported archive version
	ErrBadVersion = errors.New("unsupported archive version")

	// ErrChecksum is returned when the stored checksum does not match
	// the payload
	ErrChecksum = errors.New("archive checksum mismatch")
)

var magic = [4]byte{'E', 'P', 'S', 'G'}

const version = 1

// Archive is the persisted form of one generated signal: its update
// triples plus the network edges, so a reader needs nothing but the
// file to reconstruct both.
type Archive[V constraints.Ordered] struct {
	RunID     string          `json:"run_id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"created_at"`
	Edges     [][2]graph.Node `json:"edges"`
	Times     []float64       `json:"times"`
	Nodes     []graph.Node    `json:"nodes"`
	Values    []V             `json:"values"`
}

// NewArchive captures a signal into an archive with a fresh run ID
func NewArchive[V constraints.Ordered](sig *signal.Signal[V]) *Archive[V] {
	ts, ns, vs := sig.UpdateTriples()
	a := &Archive[V]{
		RunID:     uuid.NewString(),
		Name:      sig.Name(),
		CreatedAt: time.Now().UTC(),
		Times:     ts,
		Nodes:     ns,
		Values:    vs,
	}
	g := sig.Network()
	for _, n := range g.Nodes() {
		for _, m := range g.Neighbors(n) {
			if n < m {
				a.Edges = append(a.Edges, [2]graph.Node{n, m})
			}
		}
	}
	return a
}

// Network rebuilds the archived network
func (a *Archive[V]) Network() *graph.Undirected {
	g := graph.NewUndirected()
	for _, e := range a.Edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

// Signal rebuilds the archived signal over the archived network
func (a *Archive[V]) Signal() (*signal.Signal[V], error) {
	return signal.FromUpdateTriples(a.Network(), a.Name, a.Times, a.Nodes, a.Values)
}

// Write serialises the archive.
// Format: [Magic:4][Version:1][DataLen:4][Data:N][Checksum:4] with the
// checksum taken over the compressed payload.
func (a *Archive[V]) Write(w io.Writer) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	compressed := snappy.Encode(nil, raw)

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(magic[:]); err != nil {
		return err
	}
	if err := bw.WriteByte(version); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(len(compressed))); err != nil {
		return err
	}
	if _, err := bw.Write(compressed); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, crc32.ChecksumIEEE(compressed)); err != nil {
		return err
	}
	return bw.Flush()
}

// Read deserialises an archive written by Write
func Read[V constraints.Ordered](r io.Reader) (*Archive[V], error) {
	br := bufio.NewReader(r)

	var m [4]byte
	if _, err := io.ReadFull(br, m[:]); err != nil {
		return nil, err
	}
	if m != magic {
		return nil, ErrBadMagic
	}
	v, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	if v != version {
		return nil, fmt.Errorf("version %d: %w", v, ErrBadVersion)
	}

	var dataLen uint32
	if err := binary.Read(br, binary.BigEndian, &dataLen); err != nil {
		return nil, err
	}
	compressed := make([]byte, dataLen)
	if _, err := io.ReadFull(br, compressed); err != nil {
		return nil, err
	}
	var sum uint32
	if err := binary.Read(br, binary.BigEndian, &sum); err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(compressed) != sum {
		return nil, ErrChecksum
	}

	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress archive: %w", err)
	}
	a := &Archive[V]{}
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}
	return a, nil
}

// Save writes the archive to a file
func (a *Archive[V]) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	if err := a.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads an archive from a file
func Load[V constraints.Ordered](path string) (*Archive[V], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	defer f.Close()
	return Read[V](f)
}
