package arcserve

import (
	"bytes"
	"io"
	"testing"
	"time"

	"osrecover/storage"
)

// stubPacket is a minimal Packet used to exercise the scheduler without
// depending on arcserve/packets (which imports this package).
type stubPacket struct {
	sig     uint32
	valid   bool
	loadErr error
	loaded  []byte
	process func(ctx *Context) error
}

func (p *stubPacket) Signature() uint32        { return p.sig }
func (p *stubPacket) AppearsValid() bool       { return p.valid }
func (p *stubPacket) WriteInformation() string { return "stub" }

func (p *stubPacket) LoadFromReader(r *storage.Reader) error {
	if p.loadErr != nil {
		return p.loadErr
	}
	buf := make([]byte, len(p.loaded))
	_, err := io.ReadFull(r, buf)
	return err
}

func (p *stubPacket) Process(ctx *Context) error {
	if p.process != nil {
		return p.process(ctx)
	}
	return nil
}

type stubArchive struct {
	warnings []string
	errors   []string
}

func (a *stubArchive) BeginFile(fullPath string, modTime time.Time) (io.Writer, error) {
	return io.Discard, nil
}
func (a *stubArchive) EndFile() (int64, error)           { return 0, nil }
func (a *stubArchive) BeginDirectory(fullPath string) error { return nil }
func (a *stubArchive) LogIntegrityWarning(format string, args ...interface{}) {
	a.warnings = append(a.warnings, format)
}
func (a *stubArchive) LogError(format string, args ...interface{}) {
	a.errors = append(a.errors, format)
}

func registerStub(sig uint32, valid bool) *int {
	count := new(int)
	Register(sig, func() Packet {
		*count++
		return &stubPacket{sig: sig, valid: valid}
	})
	return count
}

func TestFramerDispatchesRegisteredPacket(t *testing.T) {
	const sig uint32 = 0x11111111
	registerStub(sig, true)
	defer delete(registry, sig)

	data := make([]byte, RootSectorSize)
	data[0], data[1], data[2], data[3] = 0x11, 0x11, 0x11, 0x11

	f := New(storage.NewReader(bytes.NewReader(data)), &stubArchive{}, nil)
	if err := f.Run(); err != nil {
		t.Fatal(err)
	}
	if len(f.Packets()) != 1 {
		t.Fatalf("expected 1 processed packet, got %d", len(f.Packets()))
	}
}

func TestFramerResyncsOnMiss(t *testing.T) {
	const sig uint32 = 0x22222222
	registerStub(sig, true)
	defer delete(registry, sig)

	// First root sector is garbage (no registered signature), second one
	// carries a valid packet signature.
	data := make([]byte, RootSectorSize*2)
	data[RootSectorSize+0] = 0x22
	data[RootSectorSize+1] = 0x22
	data[RootSectorSize+2] = 0x22
	data[RootSectorSize+3] = 0x22

	archive := &stubArchive{}
	f := New(storage.NewReader(bytes.NewReader(data)), archive, nil)
	if err := f.Run(); err != nil {
		t.Fatal(err)
	}
	if len(f.Packets()) != 1 {
		t.Fatalf("expected 1 processed packet after resync, got %d", len(f.Packets()))
	}
}

func TestFramerSkipsPacketThatAppearsInvalid(t *testing.T) {
	const sig uint32 = 0x33333333
	registerStub(sig, false)
	defer delete(registry, sig)

	data := make([]byte, RootSectorSize)
	data[0], data[1], data[2], data[3] = 0x33, 0x33, 0x33, 0x33

	f := New(storage.NewReader(bytes.NewReader(data)), &stubArchive{}, nil)
	if err := f.Run(); err != nil {
		t.Fatal(err)
	}
	if len(f.Packets()) != 0 {
		t.Fatalf("expected 0 processed packets, got %d", len(f.Packets()))
	}
}

func TestFramerSharesBasePathAcrossPackets(t *testing.T) {
	const sig uint32 = 0x44444444
	var seenPath string
	Register(sig, func() Packet {
		return &stubPacket{sig: sig, valid: true, process: func(ctx *Context) error {
			*ctx.CurrentBasePath = "C:\\DATA"
			seenPath = *ctx.CurrentBasePath
			return nil
		}}
	})
	defer delete(registry, sig)

	data := make([]byte, RootSectorSize)
	data[0], data[1], data[2], data[3] = 0x44, 0x44, 0x44, 0x44

	f := New(storage.NewReader(bytes.NewReader(data)), &stubArchive{}, nil)
	if err := f.Run(); err != nil {
		t.Fatal(err)
	}
	if seenPath != "C:\\DATA" {
		t.Fatalf("expected base path to propagate, got %q", seenPath)
	}
	if f.currentBasePath != "C:\\DATA" {
		t.Fatalf("framer did not retain base path: %q", f.currentBasePath)
	}
}
