package graph

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"
)

const (
	magicBytes = "SSSPGRPH"
	version    = uint32(1)
	maxNodes   = 10_000_000
	maxEdges   = 50_000_000
)

// fileHeader is the binary header.
type fileHeader struct {
	Magic     [8]byte
	Version   uint32
	NumNodes  uint32
	NumEdges  uint32
	HasCoords uint32
	Bound     int64 // delay bound stored alongside the graph
}

// WriteBinary serializes a Graph and its delay bound to a binary file.
// Uses unsafe.Slice for fast zero-copy I/O.
func WriteBinary(path string, g *Graph, bound int64) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	hdr := fileHeader{
		Version:  version,
		NumNodes: g.NumNodes,
		NumEdges: g.NumEdges,
		Bound:    bound,
	}
	if g.HasCoords() {
		hdr.HasCoords = 1
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if err := writeUint32Slice(w, g.FirstOut); err != nil {
		return fmt.Errorf("write FirstOut: %w", err)
	}
	if err := writeUint32Slice(w, g.Head); err != nil {
		return fmt.Errorf("write Head: %w", err)
	}
	if err := writeInt64Slice(w, g.Weight); err != nil {
		return fmt.Errorf("write Weight: %w", err)
	}
	if err := writeInt64Slice(w, g.Delay); err != nil {
		return fmt.Errorf("write Delay: %w", err)
	}
	if hdr.HasCoords == 1 {
		if err := writeFloat64Slice(w, g.NodeLat); err != nil {
			return fmt.Errorf("write NodeLat: %w", err)
		}
		if err := writeFloat64Slice(w, g.NodeLon); err != nil {
			return fmt.Errorf("write NodeLon: %w", err)
		}
	}

	// Write CRC32 trailer.
	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// ReadBinary deserializes a Graph and its delay bound from a binary file.
func ReadBinary(path string) (*Graph, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	crcReader := crc32Reader{r: br, hash: crc32.NewIEEE()}
	r := &crcReader

	// Read and validate header.
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	if string(hdr.Magic[:]) != magicBytes {
		return nil, 0, fmt.Errorf("invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, 0, fmt.Errorf("unsupported version: %d", hdr.Version)
	}
	if hdr.NumNodes > maxNodes {
		return nil, 0, fmt.Errorf("NumNodes %d exceeds limit %d", hdr.NumNodes, maxNodes)
	}
	if hdr.NumEdges > maxEdges {
		return nil, 0, fmt.Errorf("NumEdges %d exceeds limit %d", hdr.NumEdges, maxEdges)
	}

	g := &Graph{NumNodes: hdr.NumNodes, NumEdges: hdr.NumEdges}

	if g.FirstOut, err = readUint32Slice(r, int(hdr.NumNodes+2)); err != nil {
		return nil, 0, fmt.Errorf("read FirstOut: %w", err)
	}
	if g.Head, err = readUint32Slice(r, int(hdr.NumEdges)); err != nil {
		return nil, 0, fmt.Errorf("read Head: %w", err)
	}
	if g.Weight, err = readInt64Slice(r, int(hdr.NumEdges)); err != nil {
		return nil, 0, fmt.Errorf("read Weight: %w", err)
	}
	if g.Delay, err = readInt64Slice(r, int(hdr.NumEdges)); err != nil {
		return nil, 0, fmt.Errorf("read Delay: %w", err)
	}
	if hdr.HasCoords == 1 {
		if g.NodeLat, err = readFloat64Slice(r, int(hdr.NumNodes+1)); err != nil {
			return nil, 0, fmt.Errorf("read NodeLat: %w", err)
		}
		if g.NodeLon, err = readFloat64Slice(r, int(hdr.NumNodes+1)); err != nil {
			return nil, 0, fmt.Errorf("read NodeLon: %w", err)
		}
	}

	// Read and validate CRC32.
	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(br, binary.LittleEndian, &storedCRC); err != nil {
		return nil, 0, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, 0, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	if err := validateCSR(g); err != nil {
		return nil, 0, fmt.Errorf("CSR invalid: %w", err)
	}

	return g, hdr.Bound, nil
}

// Load reads a graph from path, detecting the binary format by its magic
// bytes and falling back to the text format otherwise.
func Load(path string) (*Graph, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	peek, _ := br.Peek(len(magicBytes))
	if bytes.Equal(peek, []byte(magicBytes)) {
		f.Close()
		return ReadBinary(path)
	}
	return ReadText(br)
}

// validateCSR checks CSR invariants.
func validateCSR(g *Graph) error {
	numNodes := g.NumNodes
	if uint32(len(g.FirstOut)) != numNodes+2 {
		return fmt.Errorf("FirstOut length %d != NumNodes+2 %d", len(g.FirstOut), numNodes+2)
	}
	if g.FirstOut[0] != 0 || g.FirstOut[1] != 0 {
		return fmt.Errorf("vertex 0 must have no edges")
	}
	numEdges := g.FirstOut[numNodes+1]
	if uint32(len(g.Head)) != numEdges {
		return fmt.Errorf("Head length %d != FirstOut[NumNodes+1] %d", len(g.Head), numEdges)
	}
	for i := uint32(1); i <= numNodes+1; i++ {
		if g.FirstOut[i] < g.FirstOut[i-1] {
			return fmt.Errorf("FirstOut not monotonic at %d: %d < %d", i, g.FirstOut[i], g.FirstOut[i-1])
		}
	}
	for i, h := range g.Head {
		if h == 0 || h > numNodes {
			return fmt.Errorf("Head[%d]=%d outside [1, %d]", i, h, numNodes)
		}
	}
	if len(g.Weight) != len(g.Head) || len(g.Delay) != len(g.Head) {
		return fmt.Errorf("Weight/Delay lengths %d/%d != Head length %d", len(g.Weight), len(g.Delay), len(g.Head))
	}
	for i := range g.Head {
		if err := checkEdgeValues(i, 0, g.Head[i], g.Weight[i], g.Delay[i]); err != nil {
			return err
		}
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeInt64Slice(w io.Writer, s []int64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readInt64Slice(r io.Reader, n int) ([]int64, error) {
	if n == 0 {
		return []int64{}, nil
	}
	s := make([]int64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]float64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
