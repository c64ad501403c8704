package simplefs

import (
	"fmt"

	"github.com/mit-pdos/go-simplefs/addr"
	"github.com/mit-pdos/go-simplefs/alloc"
	"github.com/mit-pdos/go-simplefs/buf"
	"github.com/mit-pdos/go-simplefs/common"
	"github.com/mit-pdos/go-simplefs/disk"
	"github.com/mit-pdos/go-simplefs/inode"
	"github.com/mit-pdos/go-simplefs/super"
	"github.com/mit-pdos/go-simplefs/util"
)

// bmap maps file block numbers of one inode to disk block numbers. The
// inode's indirect block is read at most once per bmap.
type bmap struct {
	d     disk.Disk
	sb    *super.FsSuper
	alloc *alloc.Alloc // nil when only reading
	ip    *inode.Inode
	ind   *buf.Buf
	dirty bool // ip's pointers changed
}

func mkBmap(d disk.Disk, sb *super.FsSuper, a *alloc.Alloc, ip *inode.Inode) *bmap {
	return &bmap{d: d, sb: sb, alloc: a, ip: ip}
}

func (m *bmap) isData(bn common.Bnum) bool {
	return bn >= m.sb.DataStart() && bn < m.sb.MaxBnum()
}

func (m *bmap) indirect() (*buf.Buf, error) {
	if m.ind != nil {
		return m.ind, nil
	}
	if !m.isData(m.ip.Indirect) {
		return nil, fmt.Errorf("inode %d: indirect block %d: %w",
			m.ip.Inum, m.ip.Indirect, ErrCorrupt)
	}
	b, err := buf.ReadBuf(m.d, addr.MkBlockAddr(m.ip.Indirect), common.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("inode %d: reading indirect block: %w",
			m.ip.Inum, err)
	}
	m.ind = b
	return b, nil
}

func checkFbn(fbn uint64) {
	if fbn >= common.MAXFILEBLOCKS {
		panic(fmt.Errorf("bmap: file block %d out of range", fbn))
	}
}

// lookup returns the disk block holding file block fbn, or NULLBNUM if that
// block was never written.
func (m *bmap) lookup(fbn uint64) (common.Bnum, error) {
	checkFbn(fbn)
	if fbn < common.NDIRECT {
		return m.ip.Direct[fbn], nil
	}
	if m.ip.Indirect == common.NULLBNUM {
		return common.NULLBNUM, nil
	}
	ind, err := m.indirect()
	if err != nil {
		return common.NULLBNUM, err
	}
	return ind.BnumGet((fbn - common.NDIRECT) * 8), nil
}

func (m *bmap) allocBlock() common.Bnum {
	bn := m.alloc.AllocNum()
	util.DPrintf(5, "inode %d: alloc block %d\n", m.ip.Inum, bn)
	return bn
}

// lookupAlloc is like lookup but allocates the blocks needed to reach fbn.
// fresh is true if the data block was just allocated. It returns NULLBNUM if
// the disk is full.
func (m *bmap) lookupAlloc(fbn uint64) (bn common.Bnum, fresh bool, err error) {
	checkFbn(fbn)
	if fbn < common.NDIRECT {
		bn = m.ip.Direct[fbn]
		if bn != common.NULLBNUM {
			return bn, false, nil
		}
		bn = m.allocBlock()
		if bn == common.NULLBNUM {
			return bn, false, nil
		}
		m.ip.Direct[fbn] = bn
		m.dirty = true
		return bn, true, nil
	}

	if m.ip.Indirect == common.NULLBNUM {
		ibn := m.allocBlock()
		if ibn == common.NULLBNUM {
			return ibn, false, nil
		}
		m.ip.Indirect = ibn
		m.dirty = true
		m.ind = buf.MkZeroBuf(ibn)
	}
	ind, err := m.indirect()
	if err != nil {
		return common.NULLBNUM, false, err
	}
	off := (fbn - common.NDIRECT) * 8
	bn = ind.BnumGet(off)
	if bn != common.NULLBNUM {
		return bn, false, nil
	}
	bn = m.allocBlock()
	if bn == common.NULLBNUM {
		return bn, false, nil
	}
	ind.BnumPut(off, bn)
	return bn, true, nil
}

// flush writes the indirect block back if lookupAlloc changed it.
func (m *bmap) flush() error {
	if m.ind == nil || !m.ind.IsDirty() {
		return nil
	}
	if err := m.ind.WriteDirect(m.d); err != nil {
		return fmt.Errorf("inode %d: writing indirect block: %w", m.ip.Inum, err)
	}
	return nil
}

// blocks lists every block the inode owns, including its indirect block. It
// also rejects a size no file can have.
func (m *bmap) blocks() ([]common.Bnum, error) {
	if m.ip.Size > common.MAXFILESIZE {
		return nil, fmt.Errorf("inode %d: size %d: %w",
			m.ip.Inum, m.ip.Size, ErrCorrupt)
	}
	var bns []common.Bnum
	for _, bn := range m.ip.Direct {
		if bn != common.NULLBNUM {
			bns = append(bns, bn)
		}
	}
	if m.ip.Indirect != common.NULLBNUM {
		ind, err := m.indirect()
		if err != nil {
			return nil, err
		}
		bns = append(bns, m.ip.Indirect)
		for i := uint64(0); i < common.NPTRBLOCK; i++ {
			bn := ind.BnumGet(i * 8)
			if bn != common.NULLBNUM {
				bns = append(bns, bn)
			}
		}
	}
	for _, bn := range bns {
		if !m.isData(bn) {
			return nil, fmt.Errorf("inode %d: block %d: %w",
				m.ip.Inum, bn, ErrCorrupt)
		}
	}
	return bns, nil
}

// scan calls visit for every block owned by a valid inode, in inode order.
func scan(d disk.Disk, sb *super.FsSuper,
	visit func(ip *inode.Inode, bn common.Bnum) error) error {
	for blkno := sb.InodeStart(); blkno < sb.DataStart(); blkno++ {
		refs, err := inode.LoadBlock(d, sb, blkno)
		if err != nil {
			return err
		}
		for _, r := range refs {
			if !r.Valid {
				continue
			}
			bns, err := mkBmap(d, sb, nil, r.Inode).blocks()
			if err != nil {
				return err
			}
			for _, bn := range bns {
				if err := visit(r.Inode, bn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
