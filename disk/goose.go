package disk

import (
	gdisk "github.com/tchajed/goose/machine/disk"
)

type gooseDisk struct {
	d         gdisk.Disk
	numBlocks uint64
}

// FromGoose exposes a goose disk as a Disk.
//
// Goose disks panic on out-of-bounds addresses; the wrapper checks addresses
// first and reports ErrOutOfRange instead.
func FromGoose(d gdisk.Disk) Disk {
	return gooseDisk{d: d, numBlocks: d.Size()}
}

func (d gooseDisk) ReadTo(a uint64, buf Block) error {
	checkBlock("read", buf)
	if err := checkAddr("read", a, d.numBlocks); err != nil {
		return err
	}
	copy(buf, d.d.Read(a))
	return nil
}

func (d gooseDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d gooseDisk) Write(a uint64, v Block) error {
	checkBlock("write", v)
	if err := checkAddr("write", a, d.numBlocks); err != nil {
		return err
	}
	d.d.Write(a, v)
	return nil
}

func (d gooseDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

func (d gooseDisk) Barrier() error {
	d.d.Barrier()
	return nil
}

func (d gooseDisk) Close() error {
	if c, ok := d.d.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}
