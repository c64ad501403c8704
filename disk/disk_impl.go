package disk

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/mit-pdos/go-simplefs/util"
)

var _ Disk = FileDisk{}

// FileDisk stores blocks in a file (or block special file) at path.
type FileDisk struct {
	fd        int
	numBlocks uint64
}

func NewFileDisk(path string, numBlocks uint64) (FileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0666)
	if err != nil {
		return FileDisk{}, fmt.Errorf("opening disk image %s: %w", path, err)
	}
	var stat unix.Stat_t
	err = unix.Fstat(fd, &stat)
	if err != nil {
		unix.Close(fd)
		return FileDisk{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if (stat.Mode&unix.S_IFMT) == unix.S_IFREG &&
		uint64(stat.Size) != numBlocks*BlockSize {
		err = unix.Ftruncate(fd, int64(numBlocks*BlockSize))
		if err != nil {
			unix.Close(fd)
			return FileDisk{}, fmt.Errorf("resizing %s: %w", path, err)
		}
	}
	util.DPrintf(1, "NewFileDisk: %s %d blocks\n", path, numBlocks)
	return FileDisk{fd, numBlocks}, nil
}

func (d FileDisk) ReadTo(a uint64, buf Block) error {
	checkBlock("read", buf)
	if err := checkAddr("read", a, d.numBlocks); err != nil {
		return err
	}
	_, err := unix.Pread(d.fd, buf, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("read at %d: %w", a, err)
	}
	util.DPrintf(20, "read: %d\n", a)
	return nil
}

func (d FileDisk) Read(a uint64) (Block, error) {
	buf := make([]byte, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d FileDisk) Write(a uint64, v Block) error {
	checkBlock("write", v)
	if err := checkAddr("write", a, d.numBlocks); err != nil {
		return err
	}
	_, err := unix.Pwrite(d.fd, v, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("write at %d: %w", a, err)
	}
	util.DPrintf(20, "write: %d\n", a)
	return nil
}

func (d FileDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

func (d FileDisk) Barrier() error {
	// NOTE: on macOS, this flushes to the drive but doesn't actually issue a
	// disk barrier; see https://golang.org/src/internal/poll/fd_fsync_darwin.go
	// for more details. The correct replacement is to issue a fcntl syscall with
	// cmd F_FULLFSYNC.
	err := unix.Fsync(d.fd)
	if err != nil {
		return fmt.Errorf("file sync failed: %w", err)
	}
	util.DPrintf(20, "barrier\n")
	return nil
}

func (d FileDisk) Close() error {
	return unix.Close(d.fd)
}

var _ Disk = MemDisk{}

// MemDisk keeps its blocks in memory; its contents are lost on Close.
type MemDisk struct {
	l      *sync.RWMutex
	blocks [][BlockSize]byte
}

func NewMemDisk(numBlocks uint64) MemDisk {
	blocks := make([][BlockSize]byte, numBlocks)
	return MemDisk{l: new(sync.RWMutex), blocks: blocks}
}

func (d MemDisk) ReadTo(a uint64, buf Block) error {
	checkBlock("read", buf)
	d.l.RLock()
	defer d.l.RUnlock()
	if err := checkAddr("read", a, uint64(len(d.blocks))); err != nil {
		return err
	}
	copy(buf, d.blocks[a][:])
	return nil
}

func (d MemDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d MemDisk) Write(a uint64, v Block) error {
	checkBlock("write", v)
	d.l.Lock()
	defer d.l.Unlock()
	if err := checkAddr("write", a, uint64(len(d.blocks))); err != nil {
		return err
	}
	copy(d.blocks[a][:], v)
	return nil
}

func (d MemDisk) Size() (uint64, error) {
	// this never changes so we assume it's safe to run lock-free
	return uint64(len(d.blocks)), nil
}

func (d MemDisk) Barrier() error { return nil }

func (d MemDisk) Close() error { return nil }
