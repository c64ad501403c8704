// Package disk is the block device the file system is layered on.
package disk

import (
	"fmt"

	"github.com/mit-pdos/go-simplefs/common"
)

// Block is a BlockSize-byte buffer
type Block = []byte

const BlockSize uint64 = common.BlockSize

type constErr string

func (err constErr) Error() string { return string(err) }

const ErrOutOfRange constErr = "block number out of range"

// Disk provides access to a logical block-based disk
type Disk interface {
	// Read reads a disk block by address
	//
	// Expects a < Size().
	Read(a uint64) (Block, error)

	// ReadTo reads the disk block at a and stores the result in b
	//
	// Expects a < Size().
	ReadTo(a uint64, b Block) error

	// Write updates a disk block by address
	//
	// Expects a < Size().
	Write(a uint64, v Block) error

	// Size reports how big the disk is, in blocks
	Size() (uint64, error)

	// Barrier ensures data is persisted.
	//
	// When it returns, all outstanding writes are guaranteed to be durably on
	// disk
	Barrier() error

	// Close releases any resources used by the disk and makes it unusable.
	Close() error
}

func checkBlock(op string, v Block) {
	if uint64(len(v)) != BlockSize {
		panic(fmt.Errorf("%s: buffer is not block-sized (%d bytes)", op, len(v)))
	}
}

func checkAddr(op string, a uint64, numBlocks uint64) error {
	if a >= numBlocks {
		return fmt.Errorf("%s at %d of %d: %w", op, a, numBlocks, ErrOutOfRange)
	}
	return nil
}
